package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"github.com/ppiankov/skilldiff/internal/model"
)

var resultsTmpl = template.Must(template.New("results").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif">
<h2>Your resume check is ready</h2>
<p>We checked {{.Total}} claim{{if ne .Total 1}}s{{end}}{{if .Name}} for {{.Name}}{{end}}.</p>
<ul>
<li>Verified: {{.Verified}}</li>
<li>Unsure: {{.Unsure}}</li>
<li>Bullshit: {{.Bullshit}}</li>
</ul>
<p><a href="{{.Link}}">View the full results</a></p>
</body></html>`))

var capacityTmpl = template.Must(template.New("capacity").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif">
<h2>We're at capacity</h2>
<p>We received your resume but can't verify it right now because we've hit our usage limits.
Your upload is saved. Please try again later.</p>
</body></html>`))

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif">
<h2>Something went wrong</h2>
<p>We couldn't finish checking your resume.</p>
<pre>{{.Detail}}</pre>
<p>Please try again later.</p>
</body></html>`))

// ResultsLink builds the stable results link for a submission
func ResultsLink(baseURL, id string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + "?id=" + url.QueryEscape(id)
	}
	q := u.Query()
	q.Set("id", id)
	u.RawQuery = q.Encode()
	return u.String()
}

// ResultsReady renders the success email
func ResultsReady(to, baseURL string, bundle *model.SubmissionResultBundle) (Message, error) {
	counts := bundle.VerdictCounts()
	data := struct {
		Name                       string
		Total                      int
		Verified, Unsure, Bullshit int
		Link                       string
	}{
		Name:     bundle.FullName,
		Total:    len(bundle.Records),
		Verified: counts[model.VerdictVerified],
		Unsure:   counts[model.VerdictUnsure],
		Bullshit: counts[model.VerdictBullshit],
		Link:     ResultsLink(baseURL, bundle.ID),
	}
	return render(to, "Your SkillDiff results are ready", resultsTmpl, data)
}

// AtCapacity renders the degraded email sent when usage limits are hit
func AtCapacity(to string) (Message, error) {
	return render(to, "SkillDiff is at capacity", capacityTmpl, nil)
}

// Failure renders the generic failure email including the error text
func Failure(to string, err error) (Message, error) {
	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}
	return render(to, "SkillDiff couldn't check your resume", errorTmpl, struct{ Detail string }{detail})
}

func render(to, subject string, tmpl *template.Template, data any) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}
