package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/fnolroute/internal/contract"
	"github.com/ppiankov/fnolroute/internal/export"
	"github.com/ppiankov/fnolroute/internal/model"
	"github.com/ppiankov/fnolroute/internal/pipeline"
	"github.com/ppiankov/fnolroute/internal/source"
	"github.com/ppiankov/fnolroute/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	xlsxPath     string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <path|dir|@listfile>...",
	Short: "Process many FNOL documents in parallel",
	Long: `Batch processes many documents concurrently:
- Directories are searched recursively for supported documents
- @file reads document paths from a file (one per line, # comments)
- Each document gets its own JSON report in the output directory
- Optionally writes an XLSX workbook with one row per document

Example:
  fnolroute batch inbox/
  fnolroute batch @todays-claims.txt --workers 8 --output-dir ./reports
  fnolroute batch inbox/ --xlsx summary.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "workers", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./fnol-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write an XLSX summary workbook to this path")
	batchCmd.Flags().Bool("check-schema", false, "count reports that do not match the JSON schema as failures")
	addLLMFlags(batchCmd, "add LLM-written explanations (never change routes)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := applyLLMFlags(cmd, cfg); err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	adapter := source.NewAdapter(cfg.Source, nil, logger)
	paths, err := worker.ExpandInputs(args, adapter.Supports)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  fnolroute Batch Processing\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Run:          %s\n", runID)
	fmt.Fprintf(stderr, "  Documents:    %d\n", len(paths))
	fmt.Fprintf(stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Threshold:    %d\n", cfg.Routing.FastTrackThreshold)
	fmt.Fprintf(stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, pipeline.WithSource(adapter), pipeline.WithLogger(logger))
	results := worker.NewBatchProcessor(p, cfg.Concurrency.Workers).ProcessPaths(ctx, paths)

	// Process results
	successCount := 0
	failureCount := 0
	routes := make(map[model.Route]int)
	rows := make([]export.Row, 0, len(results))
	names := newReportNamer(outputDir)

	checkSchema := schemaCheck(cmd, cfg)
	for _, result := range results {
		rows = append(rows, export.Row{Path: result.Path, Report: result.Report, Err: result.Error})
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		if checkSchema {
			if err := contract.ValidateReport(result.Report); err != nil {
				failureCount++
				fmt.Fprintf(stderr, "✗ %s: %v\n", result.Path, err)
				continue
			}
		}

		// Render report
		jsonPath := names.next(result.Path)
		if err := p.RenderReport(result.Report, jsonPath, cfg.Output.Verbose); err != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}

		successCount++
		routes[result.Report.RecommendedRoute]++
		fmt.Fprintf(stderr, "✓ %s\n", pipeline.SummaryLine(result.Path, result.Report))
	}

	if skipped := len(paths) - len(results); skipped > 0 {
		failureCount += skipped
		fmt.Fprintf(stderr, "✗ %d documents not processed: %v\n", skipped, ctx.Err())
	}

	if xlsxPath != "" {
		data, err := export.NewWorkbook(logger).Build(rows)
		if err != nil {
			return fmt.Errorf("build workbook: %w", err)
		}
		if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		fmt.Fprintf(stderr, "✓ Wrote XLSX summary: %s\n", xlsxPath)
	}

	// Summary
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d documents\n", len(paths))
	fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	for _, r := range model.Routes {
		if n := routes[r]; n > 0 {
			fmt.Fprintf(stderr, "  %-17s %d\n", string(r)+":", n)
		}
	}
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d documents failed", failureCount, len(paths))
	}
	return nil
}

// reportNamer hands out unique report paths when inputs share a base name
type reportNamer struct {
	dir  string
	used map[string]int
}

func newReportNamer(dir string) *reportNamer {
	return &reportNamer{dir: dir, used: make(map[string]int)}
}

func (n *reportNamer) next(input string) string {
	path := pipeline.ReportPath(n.dir, input)
	key := strings.ToLower(path)
	n.used[key]++
	if c := n.used[key]; c > 1 {
		path = strings.TrimSuffix(path, ".json") + "-" + strconv.Itoa(c) + ".json"
	}
	return filepath.Clean(path)
}
