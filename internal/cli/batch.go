package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/model"
	"github.com/ppiankov/skilldiff/internal/pipeline"
	"github.com/ppiankov/skilldiff/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd verifies several resume files in parallel
var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Verify multiple resume files in parallel",
	Long: `Batch runs the full pipeline on several resumes concurrently:
- Each file is an independent submission with its own id
- Files run in parallel on a bounded worker pool
- Each run verifies its claims concurrently
- A JSON and Markdown report is written per file

Example:
  skilldiff batch resumes/*.md
  skilldiff batch a.txt b.html --concurrency 2 --output-dir ./reports`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of files verified at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./skilldiff-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
	batchCmd.Flags().StringVar(&email, "email", "local@skilldiff.invalid", "recipient for outcome emails")
}

type batchResult struct {
	path    string
	outcome *pipeline.Outcome
	bundle  *model.SubmissionResultBundle
	err     error
}

func runBatch(cmd *cobra.Command, files []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	logger := logging.Default()
	ctx = logging.With(ctx, logger)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  SkillDiff Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Files:        %d\n", len(files))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	results := runFiles(ctx, a, files, concurrency)

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.path, result.err)
			continue
		}

		slug := sanitizeFilename(strings.TrimSuffix(filepath.Base(result.path), filepath.Ext(result.path)))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := pipeline.RenderJSON(result.bundle, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.path, err)
			continue
		}
		if err := pipeline.RenderMarkdown(result.bundle, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.path, err)
			continue
		}

		successCount++
		counts := result.bundle.VerdictCounts()
		fmt.Fprintf(os.Stderr, "✓ %s (verified %d, unsure %d, bullshit %d)\n", result.path,
			counts[model.VerdictVerified], counts[model.VerdictUnsure], counts[model.VerdictBullshit])
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d files\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d files failed", failureCount, len(results))
	}
	return nil
}

// runFiles runs each file through the pipeline on a worker pool and
// returns results in input order
func runFiles(ctx context.Context, a *app, files []string, workers int) []batchResult {
	pool := worker.NewPool(workers, len(files))
	pool.Start()

	results := make([]batchResult, len(files))
	var wg sync.WaitGroup

	for i, path := range files {
		wg.Add(1)
		idx, p := i, path
		err := pool.Submit(func(context.Context) {
			defer wg.Done()
			results[idx] = runFile(ctx, a, p)
		})
		if err != nil {
			wg.Done()
			results[idx] = batchResult{path: p, err: err}
		}
	}

	wg.Wait()
	_ = pool.Shutdown(ctx)
	return results
}

func runFile(ctx context.Context, a *app, path string) batchResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return batchResult{path: path, err: err}
	}

	sub := model.Submission{
		ID:          uuid.NewString(),
		Email:       email,
		Document:    data,
		ContentType: detectContentType(path, ""),
	}

	out := a.orchestrator.Run(ctx, sub)
	if out.Err != nil {
		if errors.Is(out.Err, model.ErrBudgetExceeded) {
			return batchResult{path: path, outcome: out, err: out.Err}
		}
		return batchResult{path: path, outcome: out, err: fmt.Errorf("failed at %s: %w", out.State, out.Err)}
	}

	bundle, err := a.ledger.Bundle(ctx, out.ID)
	if err != nil {
		return batchResult{path: path, outcome: out, err: fmt.Errorf("read result bundle: %w", err)}
	}
	return batchResult{path: path, outcome: out, bundle: bundle}
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	if s == "" || s == "." || s == ".." {
		s = "resume"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
