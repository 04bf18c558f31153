package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/fnolroute/internal/pipeline"
	"github.com/ppiankov/fnolroute/internal/source"
	"github.com/ppiankov/fnolroute/internal/watch"
)

var (
	watchOutDir   string
	watchInitial  bool
	watchDebounce time.Duration
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <inbox-dir>",
	Short: "Route documents as they land in an inbox directory",
	Long: `Watch processes every supported document written into the inbox directory
(recursively) and writes its JSON report to the output directory. A file is
processed once its writes have been quiet for the debounce period.

Example:
  fnolroute watch /srv/fnol/inbox --output-dir /srv/fnol/reports
  fnolroute watch inbox/ --initial-scan`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchOutDir, "output-dir", "./fnol-reports", "output directory for reports")
	watchCmd.Flags().BoolVar(&watchInitial, "initial-scan", false, "also process documents already in the inbox")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 750*time.Millisecond, "quiet period before a written file is processed")
}

func runWatch(cmd *cobra.Command, args []string) error {
	inbox := args[0]
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(watchOutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	outAbs, err := filepath.Abs(watchOutDir)
	if err != nil {
		return err
	}

	adapter := source.NewAdapter(cfg.Source, nil, logger)
	p := pipeline.NewPipeline(cfg, pipeline.WithSource(adapter), pipeline.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := watch.Watch(ctx, watch.Config{
		Dir:         inbox,
		Accept:      func(path string) bool { return adapter.Supports(path) && !within(outAbs, path) },
		InitialScan: watchInitial,
		Debounce:    watchDebounce,
	}, logger)
	if err != nil {
		return fmt.Errorf("watch %s: %w", inbox, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (reports -> %s); Ctrl-C to stop\n", inbox, watchOutDir)

	names := newReportNamer(watchOutDir)
	for path := range paths {
		fmt.Fprintf(cmd.ErrOrStderr(), "Processing: %s\n", path)
		report, err := p.Process(ctx, path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", path, err)
			continue
		}
		if err := p.RenderReport(report, names.next(path), cfg.Output.Verbose); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: failed to write JSON: %v\n", path, err)
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ %s\n", pipeline.SummaryLine(path, report))
	}
	return nil
}

// within reports whether path lies inside dir (both made absolute)
func within(dir, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
