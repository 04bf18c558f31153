package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/fnolroute/internal/contract"
	"github.com/ppiankov/fnolroute/internal/model"
	"github.com/ppiankov/fnolroute/internal/pipeline"
)

// DefaultSamplePath is processed when no document is named
const DefaultSamplePath = "samples/fnol-auto.txt"

var outJSON string

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [path]",
	Short: "Extract, validate and route one FNOL document",
	Long: `Process reads one document, extracts the claim fields, validates them and
prints the routing report as JSON.

Supported inputs: .txt/.md/.eml (text), .pdf (text layer, OCR for scanned
pages), .png/.jpg/.tif (OCR), .html. Anything else is read as text.

Example:
  fnolroute process
  fnolroute process claims/incoming/acme-0917.pdf --out report.json
  fnolroute process scan.png --threshold 10000 --check-schema`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&outJSON, "out", "o", "", "write the JSON report to this file instead of stdout")
	processCmd.Flags().Bool("check-schema", false, "fail if the report does not match the published JSON schema")
	addLLMFlags(processCmd, "add an LLM-written explanation of the decision (never changes the route)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	path := DefaultSamplePath
	if len(args) == 1 {
		path = args[0]
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := applyLLMFlags(cmd, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Processing: %s\n", path)
	// A missing document still gets a report; it routes to Manual Review
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	deadline := cfg.Source.Timeout + cfg.LLM.Timeout
	if deadline <= 0 {
		deadline = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	p := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))
	report, err := p.Process(ctx, path)
	if err != nil {
		return err
	}

	if schemaCheck(cmd, cfg) {
		if err := contract.ValidateReport(report); err != nil {
			return err
		}
	}

	if outJSON == "" {
		return pipeline.WriteJSON(cmd.OutOrStdout(), report)
	}
	if err := p.RenderReport(report, outJSON, cfg.Output.Verbose); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), pipeline.SummaryLine(path, report))
	return nil
}

// addLLMFlags registers --llm and --llm-model on one command
func addLLMFlags(cmd *cobra.Command, usage string) {
	cmd.Flags().Bool("llm", false, usage)
	cmd.Flags().String("llm-model", "", "LLM model name (default from config)")
}

// applyLLMFlags turns on the summarizer when the command was given --llm
func applyLLMFlags(cmd *cobra.Command, cfg *model.Config) error {
	if enabled, _ := cmd.Flags().GetBool("llm"); !enabled {
		return nil
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if name, _ := cmd.Flags().GetString("llm-model"); name != "" {
		cfg.LLM.Model = name
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("--llm needs an API key: set OPENAI_API_KEY or FNOLROUTE_LLM_API_KEY")
	}
	return nil
}

// schemaCheck reports whether reports must match the JSON schema, from the
// command's --check-schema flag or output.check_schema
func schemaCheck(cmd *cobra.Command, cfg *model.Config) bool {
	on, _ := cmd.Flags().GetBool("check-schema")
	return on || cfg.Output.CheckSchema
}
