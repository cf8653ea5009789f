package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/skilldiff/internal/model"
)

// RenderTable writes a one-line-per-claim verdict table
func RenderTable(w io.Writer, bundle *model.SubmissionResultBundle) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tVERDICT\tCLAIM\tSOURCES")
	for i, rec := range bundle.Records {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i+1, rec.Verdict, truncate(rec.Claim.Text, 80), len(rec.Evidence.Sources))
	}
	return tw.Flush()
}

// RenderJSON writes the bundle as indented JSON to path
func RenderJSON(bundle *model.SubmissionResultBundle, path string) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a human-readable report to path
func RenderMarkdown(bundle *model.SubmissionResultBundle, path string) error {
	return writeFile(path, []byte(Markdown(bundle)))
}

// Markdown formats the bundle as a markdown report
func Markdown(bundle *model.SubmissionResultBundle) string {
	var b strings.Builder

	title := bundle.FullName
	if title == "" {
		title = bundle.ID
	}
	fmt.Fprintf(&b, "# Resume check: %s\n\n", title)
	if bundle.School != "" {
		fmt.Fprintf(&b, "School: %s\n\n", bundle.School)
	}

	counts := bundle.VerdictCounts()
	fmt.Fprintf(&b, "| Verified | Unsure | Bullshit |\n|---|---|---|\n| %d | %d | %d |\n\n",
		counts[model.VerdictVerified], counts[model.VerdictUnsure], counts[model.VerdictBullshit])

	for i, rec := range bundle.Records {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, rec.Claim.Text)
		fmt.Fprintf(&b, "**Verdict:** %s  \n**Query:** `%s`\n\n", rec.Verdict, rec.Claim.SearchQuery)
		if rec.Evidence.HasAnswer() {
			fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(rec.Evidence.SyntheticAnswer, "\n", "\n> "))
		}
		for _, s := range rec.Evidence.Sources {
			label := s.Title
			if label == "" {
				label = s.URL
			}
			fmt.Fprintf(&b, "- [%s](%s) (%.2f)\n", label, s.URL, s.Score)
		}
		if len(rec.Evidence.Sources) > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
