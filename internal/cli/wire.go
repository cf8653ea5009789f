package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/skilldiff/internal/budget"
	"github.com/ppiankov/skilldiff/internal/cache"
	"github.com/ppiankov/skilldiff/internal/generate"
	"github.com/ppiankov/skilldiff/internal/judge"
	"github.com/ppiankov/skilldiff/internal/ledger"
	"github.com/ppiankov/skilldiff/internal/llm"
	"github.com/ppiankov/skilldiff/internal/model"
	"github.com/ppiankov/skilldiff/internal/notify"
	"github.com/ppiankov/skilldiff/internal/parse"
	"github.com/ppiankov/skilldiff/internal/pipeline"
	"github.com/ppiankov/skilldiff/internal/search"
	"github.com/ppiankov/skilldiff/internal/verify"
	"github.com/ppiankov/skilldiff/internal/worker"
)

// app holds the wired pipeline and whatever must be closed on exit
type app struct {
	orchestrator *pipeline.Orchestrator
	ledger       *ledger.Ledger
	closers      []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// newApp builds every collaborator from cfg
func newApp(ctx context.Context, cfg *model.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	l, err := a.buildLedger(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.ledger = l

	generator, judgeImpl, err := buildLLM(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	retriever, err := buildRetriever(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	gate, err := budget.New(cfg.Budget)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if q, ok := gate.(*budget.RedisQuota); ok {
		a.closers = append(a.closers, q.Close)
	}

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	controller := verify.NewController(retriever, judgeImpl, verify.ConfigFromModel(cfg.Verify))

	a.orchestrator = pipeline.New(pipeline.Deps{
		Parser:    parse.New(),
		Generator: generator,
		Verifier:  controller,
		Ledger:    l,
		Gate:      gate,
		Notifier:  notifier,
	}, pipeline.Options{
		ResultsBaseURL: cfg.Notify.ResultsBaseURL,
		NotifyTimeout:  cfg.Notify.Timeout,
	})

	return a, nil
}

func buildLLM(cfg *model.Config) (*generate.Generator, *judge.Judge, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, nil, fmt.Errorf("llm provider: %w", err)
	}

	judgeModel := cfg.LLM.JudgeModel
	if judgeModel == "" {
		judgeModel = cfg.LLM.Model
	}

	return generate.NewGenerator(provider, cfg.LLM.Model), judge.NewJudge(provider, judgeModel), nil
}

func buildRetriever(cfg *model.Config) (*search.Retriever, error) {
	if p := strings.ToLower(cfg.Search.Provider); p != "" && p != "tavily" {
		return nil, fmt.Errorf("unsupported search provider %q", cfg.Search.Provider)
	}

	client, err := search.NewTavilyClient(search.TavilyConfig{
		APIKey:     cfg.Search.APIKey,
		BaseURL:    cfg.Search.BaseURL,
		Timeout:    cfg.Search.Timeout,
		HTTPProxy:  cfg.LLM.HTTPProxy,
		HTTPSProxy: cfg.LLM.HTTPSProxy,
	})
	if err != nil {
		return nil, err
	}

	opts := []search.Option{
		search.WithDepth(cfg.Search.Depth),
		search.WithLimiter(buildLimiter(cfg.Search)),
	}
	if cfg.Cache.Enabled {
		opts = append(opts, search.WithCache(buildCache(cfg.Cache), 0))
	}

	return search.NewRetriever(client, cfg.Search.MaxResults, opts...), nil
}

func buildLimiter(cfg model.SearchConfig) *worker.Limiter {
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	for _, r := range cfg.HostRates {
		limiter.SetHostRate(r.Host, r.RequestsPerSecond, r.Burst)
	}
	return limiter
}

func buildCache(cfg model.CacheConfig) cache.Cache {
	if cfg.DiskDir != "" {
		return cache.NewLayeredCache(cfg.MemoryTTL, cfg.DiskDir, cfg.DiskTTL)
	}
	return cache.NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
}

func buildNotifier(cfg *model.Config, logger *slog.Logger) (notify.Notifier, error) {
	switch strings.ToLower(cfg.Notify.Provider) {
	case "", "log":
		return notify.NewLogNotifier(logger), nil
	case "resend":
		return notify.NewResendNotifier(notify.ResendConfig{
			APIKey:     cfg.Notify.APIKey,
			BaseURL:    cfg.Notify.BaseURL,
			From:       cfg.Notify.From,
			Timeout:    cfg.Notify.Timeout,
			HTTPProxy:  cfg.LLM.HTTPProxy,
			HTTPSProxy: cfg.LLM.HTTPSProxy,
		})
	default:
		return nil, fmt.Errorf("unsupported notify provider %q (want log or resend)", cfg.Notify.Provider)
	}
}

// buildLedger wires the bundle, analytics and blob stores selected by cfg
func (a *app) buildLedger(ctx context.Context, cfg *model.Config) (*ledger.Ledger, error) {
	var (
		bundles   ledger.BundleStore
		analytics ledger.AnalyticsStore
	)

	switch strings.ToLower(cfg.Ledger.Backend) {
	case "", "memory":
		s := ledger.NewMemoryStore()
		bundles, analytics = s, s
	case "postgres":
		if cfg.Ledger.DatabaseURL == "" {
			return nil, fmt.Errorf("ledger.backend postgres needs DATABASE_URL")
		}
		s, err := ledger.NewPostgresStore(ctx, cfg.Ledger.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { s.Close(); return nil })
		bundles, analytics = s, s
	case "firestore":
		s, err := ledger.NewFirestoreStore(ctx, cfg.Ledger.ProjectID, cfg.Ledger.Database, cfg.Ledger.Collection)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		bundles, analytics = s, s
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q (want memory, postgres or firestore)", cfg.Ledger.Backend)
	}

	var blobs ledger.BlobStore
	switch strings.ToLower(cfg.Blob.Backend) {
	case "", "memory":
		blobs = ledger.NewMemoryBlobStore()
	case "disk":
		dir := cfg.Blob.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("error finding home directory: %w", err)
			}
			dir = filepath.Join(home, ".skilldiff", "blobs")
		}
		s, err := ledger.NewDiskBlobStore(dir)
		if err != nil {
			return nil, err
		}
		blobs = s
	case "gcs":
		s, err := ledger.NewGCSBlobStore(ctx, cfg.Blob.Bucket)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		blobs = s
	default:
		return nil, fmt.Errorf("unsupported blob backend %q (want memory, disk or gcs)", cfg.Blob.Backend)
	}

	return ledger.New(bundles, analytics, blobs, cfg.Ledger.WriteTimeout), nil
}
