// Package verify fans claims out to retrieval and judgment and gathers the verdicts in order.
package verify

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/metrics"
	"github.com/ppiankov/skilldiff/internal/model"
)

// DefaultMaxClaims is how many claims a submission may verify
const DefaultMaxClaims = 10

// Retriever fetches evidence for one search query
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*model.Evidence, error)
}

// Judge classifies one claim against its evidence
type Judge interface {
	Judge(ctx context.Context, claim model.Claim, evidence *model.Evidence) (model.Verdict, error)
}

// Config bounds the fan-out
type Config struct {
	MaxClaims   int
	CallTimeout time.Duration // Per Retrieve/Judge attempt, 0 disables
	MaxAttempts int           // Including the first, 1 disables retry
	BackoffBase time.Duration
	MaxBackoff  time.Duration
}

// ConfigFromModel maps the verify config section
func ConfigFromModel(c model.VerifyConfig) Config {
	return Config{
		MaxClaims:   c.MaxClaims,
		CallTimeout: c.CallTimeout,
		MaxAttempts: c.MaxAttempts,
		BackoffBase: c.BackoffBase,
		MaxBackoff:  c.MaxBackoff,
	}
}

// Controller runs retrieve-then-judge per claim concurrently
type Controller struct {
	retriever Retriever
	judge     Judge
	config    Config
}

// NewController creates a controller
func NewController(retriever Retriever, judge Judge, config Config) *Controller {
	if config.MaxClaims <= 0 {
		config.MaxClaims = DefaultMaxClaims
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = 2 * time.Second
	}
	if config.MaxBackoff < config.BackoffBase {
		config.MaxBackoff = config.BackoffBase
	}
	return &Controller{retriever: retriever, judge: judge, config: config}
}

type chainResult struct {
	idx    int
	record model.VerificationRecord
	err    error
}

// VerifyAll verifies at most MaxClaims claims and returns one record per
// retained claim, in input order. The first failing chain cancels the rest
// and is returned as a *model.VerificationError with no partial records.
func (c *Controller) VerifyAll(ctx context.Context, claims []model.Claim) ([]model.VerificationRecord, error) {
	claims = model.TruncateClaims(claims, c.config.MaxClaims)
	if len(claims) == 0 {
		return []model.VerificationRecord{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so chains still running after an early return never block
	results := make(chan chainResult, len(claims))

	for i, claim := range claims {
		go func(idx int, cl model.Claim) {
			rec, err := c.chain(ctx, idx, cl)
			results <- chainResult{idx: idx, record: rec, err: err}
		}(i, claim)
	}

	records := make([]model.VerificationRecord, len(claims))
	for range claims {
		select {
		case <-ctx.Done():
			return nil, &model.VerificationError{Index: -1, Err: ctx.Err()}
		case res := <-results:
			if res.err != nil {
				return nil, &model.VerificationError{Index: res.idx, Err: res.err}
			}
			records[res.idx] = res.record
		}
	}

	return records, nil
}

func (c *Controller) chain(ctx context.Context, idx int, claim model.Claim) (model.VerificationRecord, error) {
	logger := logging.From(ctx).With("claim_index", idx)

	var evidence *model.Evidence
	err := c.retry(ctx, "retrieve", func(ctx context.Context) error {
		ev, err := c.retriever.Retrieve(ctx, claim.SearchQuery)
		if err != nil {
			return err
		}
		evidence = ev
		return nil
	})
	if err != nil {
		metrics.StageFailures.WithLabelValues("retrieve").Inc()
		logger.Warn("retrieval failed", "query", claim.SearchQuery, "error", err)
		return model.VerificationRecord{}, err
	}

	var verdict model.Verdict
	err = c.retry(ctx, "judge", func(ctx context.Context) error {
		v, err := c.judge.Judge(ctx, claim, evidence)
		if err != nil {
			return err
		}
		verdict = v
		return nil
	})
	if err != nil {
		metrics.StageFailures.WithLabelValues("judge").Inc()
		logger.Warn("judgment failed", "error", err)
		return model.VerificationRecord{}, err
	}

	metrics.Verdicts.WithLabelValues(string(verdict)).Inc()
	logger.Debug("claim judged", "verdict", verdict, "sources", len(evidence.Sources))

	return model.VerificationRecord{Claim: claim, Evidence: *evidence, Verdict: verdict}, nil
}

// retry runs op with a per-attempt timeout, retrying only transient errors
func (c *Controller) retry(ctx context.Context, stage string, op func(ctx context.Context) error) error {
	attempt := func() error {
		callCtx := ctx
		if c.config.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.config.CallTimeout)
			defer cancel()
		}
		err := op(callCtx)
		if err != nil && !model.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.BackoffBase
	policy.MaxInterval = c.config.MaxBackoff
	policy.MaxElapsedTime = 0
	policy.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.config.MaxAttempts-1)), ctx)

	return backoff.RetryNotify(attempt, b, func(err error, wait time.Duration) {
		metrics.Retries.WithLabelValues(stage).Inc()
		logging.From(ctx).Debug("retrying", "stage", stage, "wait", wait, "error", err)
	})
}
