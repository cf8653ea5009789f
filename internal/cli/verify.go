package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/model"
	"github.com/ppiankov/skilldiff/internal/pipeline"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	email       string
	contentType string
	maxClaims   int
	budgetMode  string
)

// verifyCmd runs the full pipeline on one local file
var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify the claims in a single resume file",
	Long: `Verify runs the full pipeline locally on one resume:
- Extract high-signal claims and search queries
- Search the web for evidence for each claim
- Judge each claim Verified, Unsure or Bullshit
- Store the result bundle and print a verdict table

Stores and notifier come from configuration (in-memory and log-only by default).

Example:
  skilldiff verify resume.md
  skilldiff verify resume.html --json report.json --md report.md
  skilldiff verify resume.txt --max-claims 5`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	verifyCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall run timeout")
	verifyCmd.Flags().StringVar(&email, "email", "local@skilldiff.invalid", "recipient for outcome emails")
	verifyCmd.Flags().StringVar(&contentType, "content-type", "", "document content type (default: from file extension)")
	verifyCmd.Flags().IntVar(&maxClaims, "max-claims", 0, "override verify.max_claims")
	verifyCmd.Flags().StringVar(&budgetMode, "budget", "", "override budget.mode (off, on, quota)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxClaims > 0 {
		cfg.Verify.MaxClaims = maxClaims
	}
	if budgetMode != "" {
		cfg.Budget.Mode = budgetMode
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	logger := logging.Default()
	ctx = logging.With(ctx, logger)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	sub := model.Submission{
		ID:          uuid.NewString(),
		Email:       email,
		Document:    data,
		ContentType: detectContentType(path, contentType),
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s (%s, %d bytes)\n", path, sub.ContentType, len(data))
		fmt.Fprintf(os.Stderr, "Submission: %s\n\n", sub.ID)
	}

	out := a.orchestrator.Run(ctx, sub)
	if out.Err != nil {
		if errors.Is(out.Err, model.ErrBudgetExceeded) {
			return fmt.Errorf("budget gate is closed; document stored as %s", out.ID)
		}
		return fmt.Errorf("verification failed at %s: %w", out.State, out.Err)
	}

	bundle, err := a.ledger.Bundle(ctx, out.ID)
	if err != nil {
		return fmt.Errorf("read result bundle: %w", err)
	}

	if err := pipeline.RenderTable(os.Stdout, bundle); err != nil {
		return err
	}
	return writeReports(bundle)
}

func writeReports(bundle *model.SubmissionResultBundle) error {
	if outJSON != "" {
		if err := pipeline.RenderJSON(bundle, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := pipeline.RenderMarkdown(bundle, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}
	return nil
}

// detectContentType prefers an explicit type, then the file extension
func detectContentType(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return ""
}
