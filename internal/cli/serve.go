package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ppiankov/fnolroute/internal/pipeline"
	"github.com/ppiankov/fnolroute/internal/server"
	"github.com/ppiankov/fnolroute/internal/source"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the pipeline over HTTP:

  POST /process-fnol           multipart field "file"; returns the JSON report
  POST /api/v1/process-fnol    same
  GET  /healthz                liveness

Uploads are staged in a temp file that keeps the upload's extension and is
removed when the request ends. Clients are rate limited per IP.

Example:
  fnolroute serve --addr :8080
  curl -F file=@samples/fnol-auto.txt localhost:8080/process-fnol`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	addLLMFlags(serveCmd, "add LLM-written explanations (never change routes)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := applyLLMFlags(cmd, cfg); err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if !cfg.Output.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter := source.NewAdapter(cfg.Source, nil, logger)
	p := pipeline.NewPipeline(cfg, pipeline.WithSource(adapter), pipeline.WithLogger(logger))

	srv := server.New(cfg.Server, p, adapter.SupportedExtensions(), Version, logger)
	return srv.Run(ctx)
}
