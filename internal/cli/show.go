package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/skilldiff/internal/ledger"
	"github.com/ppiankov/skilldiff/internal/pipeline"
)

var (
	showJSON bool
	showRaw  bool
)

// showCmd prints a stored result bundle
var showCmd = &cobra.Command{
	Use:   "show <submission-id>",
	Short: "Print a stored result bundle",
	Long: `Show reads the result bundle for a submission from the configured ledger.
Only useful with a persistent backend (postgres or firestore).

With --raw it prints the originally uploaded document instead.

Example:
  skilldiff show 6cfb9168-56b3-473f-87d0-4047e3dfa16e
  skilldiff show 6cfb9168-56b3-473f-87d0-4047e3dfa16e --json
  skilldiff show 6cfb9168-56b3-473f-87d0-4047e3dfa16e --raw > resume.md`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the bundle as JSON")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print the stored original document")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a := &app{}
	defer func() { _ = a.Close() }()

	l, err := a.buildLedger(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if showRaw {
		return showDocument(cmd.Context(), os.Stdout, l, args[0])
	}
	return showBundle(cmd.Context(), os.Stdout, l, args[0], showJSON)
}

func showBundle(ctx context.Context, w io.Writer, l *ledger.Ledger, id string, asJSON bool) error {
	bundle, err := l.Bundle(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("no results stored for %s", id)
	}
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	}

	fmt.Fprintf(w, "Submission: %s\n", bundle.ID)
	if bundle.FullName != "" {
		fmt.Fprintf(w, "Candidate:  %s (%s)\n", bundle.FullName, bundle.School)
	}
	fmt.Fprintf(w, "Created:    %s\n", bundle.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	data, contentType, err := l.RawBlob(ctx, id)
	switch {
	case err == nil:
		fmt.Fprintf(w, "Document:   %s, %d bytes\n", contentType, len(data))
	case errors.Is(err, ledger.ErrNotFound):
		fmt.Fprintf(w, "Document:   not stored\n")
	default:
		return err
	}

	fmt.Fprintln(w)
	return pipeline.RenderTable(w, bundle)
}

// showDocument writes the stored upload for id as-is
func showDocument(ctx context.Context, w io.Writer, l *ledger.Ledger, id string) error {
	data, _, err := l.RawBlob(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("no document stored for %s", id)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
