// Package pipeline runs one submission from upload to results email.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/skilldiff/internal/budget"
	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/metrics"
	"github.com/ppiankov/skilldiff/internal/model"
	"github.com/ppiankov/skilldiff/internal/notify"
	"github.com/ppiankov/skilldiff/internal/parse"
)

// Generator turns resume text into claims
type Generator interface {
	Generate(ctx context.Context, resumeText string) (*model.Generation, error)
}

// Verifier verifies claims concurrently
type Verifier interface {
	VerifyAll(ctx context.Context, claims []model.Claim) ([]model.VerificationRecord, error)
}

// Ledger persists run artifacts
type Ledger interface {
	RecordAnalytics(ctx context.Context, rec model.AnalyticsRecord)
	SaveRawBlob(ctx context.Context, id string, data []byte, contentType string) error
	SaveBundle(ctx context.Context, bundle *model.SubmissionResultBundle) error
}

// Deps are the collaborators of a run
type Deps struct {
	Parser    parse.Parser
	Generator Generator
	Verifier  Verifier
	Ledger    Ledger
	Gate      budget.Gate
	Notifier  notify.Notifier
}

// Options tune a run
type Options struct {
	ResultsBaseURL string
	NotifyTimeout  time.Duration
	Now            func() time.Time
}

// Orchestrator drives submissions through the pipeline
type Orchestrator struct {
	deps Deps
	opts Options
}

// New creates an orchestrator. A nil Gate never reports exhaustion.
func New(deps Deps, opts Options) *Orchestrator {
	if deps.Parser == nil {
		deps.Parser = parse.New()
	}
	if deps.Gate == nil {
		deps.Gate = budget.Off{}
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{deps: deps, opts: opts}
}

// Run processes one submission. It never returns an error directly;
// failures are reported in the Outcome and by a best-effort email.
func (o *Orchestrator) Run(ctx context.Context, sub model.Submission) *Outcome {
	start := o.opts.Now()
	logger := logging.From(ctx).With("submission_id", sub.ID)
	ctx = logging.With(ctx, logger)

	out := &Outcome{ID: sub.ID, State: StateReceived}
	logger.Info("run started", "email", sub.Email, "bytes", len(sub.Document))

	err := o.run(ctx, sub, out)

	switch {
	case err == nil:
		metrics.Submissions.WithLabelValues(string(StateNotified)).Inc()
		logger.Info("run finished", "records", out.Records, "elapsed", time.Since(start))
	case errors.Is(err, model.ErrBudgetExceeded):
		out.Err = err
		metrics.Submissions.WithLabelValues("budget").Inc()
		logger.Warn("run stopped at budget gate")
	default:
		o.fail(ctx, sub, out, err)
	}

	metrics.RunDuration.Observe(o.opts.Now().Sub(start).Seconds())
	return out
}

func (o *Orchestrator) run(ctx context.Context, sub model.Submission, out *Outcome) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", out.State, r)
		}
	}()

	o.deps.Ledger.RecordAnalytics(ctx, sub.Analytics(o.opts.Now().UTC()))
	out.State = StateAnalyticsRecorded

	data, contentType := sub.Document, sub.ContentType
	if len(data) == 0 {
		data, contentType = []byte(sub.RawText), "text/plain; charset=utf-8"
	}
	if err := o.deps.Ledger.SaveRawBlob(ctx, sub.ID, data, contentType); err != nil {
		return err
	}
	out.State = StateBlobStored
	logging.From(ctx).Debug("document stored", "content_type", contentType, "bytes", len(data))

	out.State = StateBudgetCheck
	if !o.allowed(ctx) {
		o.send(ctx, sub.Email, func() (notify.Message, error) { return notify.AtCapacity(sub.Email) })
		return model.ErrBudgetExceeded
	}

	text := sub.RawText
	if text == "" {
		text, err = o.deps.Parser.Parse(ctx, sub.Document, sub.ContentType)
		if err != nil {
			return fmt.Errorf("parse document: %w", err)
		}
	}

	gen, err := o.deps.Generator.Generate(ctx, text)
	if err != nil {
		metrics.StageFailures.WithLabelValues("generate").Inc()
		return err
	}
	out.State = StateClaimsGenerated
	logging.From(ctx).Info("claims generated", "claims", len(gen.Claims), "name", gen.FullName)

	records, err := o.deps.Verifier.VerifyAll(ctx, gen.Claims)
	if err != nil {
		return err
	}
	out.State = StateVerified
	out.Records = len(records)

	bundle := &model.SubmissionResultBundle{
		ID:        sub.ID,
		Email:     sub.Email,
		RawText:   text,
		FullName:  gen.FullName,
		School:    gen.School,
		Records:   records,
		CreatedAt: o.opts.Now().UTC(),
	}
	if err := o.deps.Ledger.SaveBundle(ctx, bundle); err != nil {
		metrics.StageFailures.WithLabelValues("persist").Inc()
		return err
	}
	out.State = StatePersisted

	o.send(ctx, sub.Email, func() (notify.Message, error) {
		return notify.ResultsReady(sub.Email, o.opts.ResultsBaseURL, bundle)
	})
	out.State = StateNotified
	return nil
}

// allowed consults the budget gate. Gate errors let the run proceed.
func (o *Orchestrator) allowed(ctx context.Context) bool {
	ok, err := o.deps.Gate.Allow(ctx)
	if err != nil {
		logging.From(ctx).Warn("budget gate unavailable, proceeding", "error", err)
		return true
	}
	return ok
}

func (o *Orchestrator) fail(ctx context.Context, sub model.Submission, out *Outcome, err error) {
	cause := Classify(err)
	logging.From(ctx).Error("run failed", "state", out.State, "cause", cause, "error", err)

	out.State = StateFailed
	out.Err = err
	metrics.Submissions.WithLabelValues(string(StateFailed)).Inc()

	o.send(ctx, sub.Email, func() (notify.Message, error) {
		if cause == model.CauseCapacity {
			return notify.AtCapacity(sub.Email)
		}
		return notify.Failure(sub.Email, err)
	})
}

// send renders and delivers one email, logging instead of returning failures
func (o *Orchestrator) send(ctx context.Context, to string, build func() (notify.Message, error)) {
	logger := logging.From(ctx)

	msg, err := build()
	if err != nil {
		logger.Error("render email failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.NotifyTimeout)
	defer cancel()

	if err := o.deps.Notifier.Send(ctx, msg); err != nil {
		metrics.StageFailures.WithLabelValues("notify").Inc()
		logger.Warn("email failed", "to", to, "subject", msg.Subject, "error", err)
	}
}
