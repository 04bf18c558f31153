package worker

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/fnolroute/internal/model"
)

// Processor runs the claim pipeline on one document
type Processor interface {
	Process(ctx context.Context, path string) (*model.Report, error)
}

// DocumentJob processes one document
type DocumentJob struct {
	Path      string
	Processor Processor
}

// Execute runs the pipeline on the job's document
func (j *DocumentJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &DocumentResult{Path: j.Path, Error: err}
	}
	report, err := j.Processor.Process(ctx, j.Path)
	return &DocumentResult{Path: j.Path, Report: report, Error: err}
}

// DocumentResult is the outcome for one document in a batch
type DocumentResult struct {
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor processes many documents concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessPaths processes documents concurrently; results follow input order
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*DocumentResult {
	if len(paths) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&DocumentJob{Path: path, Processor: b.processor})
	}

	results := pool.Wait()

	out := make([]*DocumentResult, len(results))
	for i, result := range results {
		out[i] = result.(*DocumentResult)
	}
	return out
}

// ExpandInputs resolves CLI arguments into document paths. A directory
// contributes its files (recursively, filtered by accept), "@file" reads a
// list of paths, anything else is taken as a path. Duplicates are dropped.
func ExpandInputs(args []string, accept func(path string) bool) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		if list, ok := strings.CutPrefix(arg, "@"); ok {
			listed, err := ReadPathsFromFile(list)
			if err != nil {
				return nil, err
			}
			for _, p := range listed {
				add(p)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			add(arg)
			continue
		}

		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if accept == nil || accept(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}

	if len(paths) == 0 {
		return nil, model.ErrNoInputs
	}
	return paths, nil
}

// ReadPathsFromFile reads document paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
