package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/skilldiff/internal/cache"
	"github.com/ppiankov/skilldiff/internal/metrics"
	"github.com/ppiankov/skilldiff/internal/model"
	"github.com/ppiankov/skilldiff/internal/worker"
)

// Retriever turns one search query into bounded evidence
type Retriever struct {
	provider   Provider
	maxResults int
	depth      model.SearchDepth
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
}

// Option configures a Retriever
type Option func(*Retriever)

// WithCache serves repeated queries from c
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(r *Retriever) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithLimiter throttles calls to the provider endpoint
func WithLimiter(l *worker.Limiter) Option {
	return func(r *Retriever) {
		r.limiter = l
	}
}

// WithDepth overrides the search depth
func WithDepth(depth model.SearchDepth) Option {
	return func(r *Retriever) {
		if depth != "" {
			r.depth = depth
		}
	}
}

// NewRetriever creates a retriever. maxResults <= 0 uses DefaultMaxResults.
func NewRetriever(provider Provider, maxResults int, opts ...Option) *Retriever {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	r := &Retriever{
		provider:   provider,
		maxResults: maxResults,
		depth:      model.SearchDepthAdvanced,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve searches for query and returns the synthesized answer with at most maxResults sources
func (r *Retriever) Retrieve(ctx context.Context, query string) (*model.Evidence, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &model.RetrievalError{Query: query, Err: errEmptyQuery}
	}

	key := cache.EvidenceKey(query, string(r.depth), r.maxResults)
	if ev, ok := r.cached(key); ok {
		metrics.CacheHits.Inc()
		return ev, nil
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, r.provider.Endpoint()); err != nil {
			return nil, &model.RetrievalError{Query: query, Err: err}
		}
	}

	resp, err := r.provider.Search(ctx, Request{
		Query:         query,
		Depth:         r.depth,
		IncludeAnswer: true,
		MaxResults:    r.maxResults,
	})
	if err != nil {
		return nil, &model.RetrievalError{Query: query, Err: err}
	}

	sources := resp.Results
	if len(sources) > r.maxResults {
		sources = sources[:r.maxResults]
	}
	ev := &model.Evidence{
		Query:           query,
		SyntheticAnswer: resp.Answer,
		Sources:         append([]model.Source(nil), sources...),
	}

	r.store(key, ev)
	return ev, nil
}

func (r *Retriever) cached(key string) (*model.Evidence, bool) {
	if r.cache == nil {
		return nil, false
	}
	data, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	var ev model.Evidence
	if err := json.Unmarshal(data, &ev); err != nil {
		_ = r.cache.Delete(key)
		return nil, false
	}
	return &ev, true
}

func (r *Retriever) store(key string, ev *model.Evidence) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := r.cache.Set(key, data, r.cacheTTL); err != nil {
		slog.Debug("evidence cache write failed", "error", err)
	}
}
