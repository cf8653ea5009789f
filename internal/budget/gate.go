// Package budget decides whether a submission may spend on claim generation and verification.
package budget

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/skilldiff/internal/cache"
	"github.com/ppiankov/skilldiff/internal/model"
)

// Modes accepted by New
const (
	ModeOff   = "off"
	ModeOn    = "on"
	ModeQuota = "quota"
)

// Gate reports whether a run may proceed past the budget check.
// false means the budget is exhausted.
type Gate interface {
	Allow(ctx context.Context) (bool, error)
}

// Off never reports exhaustion
type Off struct{}

// Allow always allows
func (Off) Allow(ctx context.Context) (bool, error) { return true, nil }

// Exhausted always reports exhaustion
type Exhausted struct{}

// Allow never allows
func (Exhausted) Allow(ctx context.Context) (bool, error) { return false, nil }

// windowKey names the counter for the fixed window containing now
func windowKey(now time.Time, window time.Duration) string {
	return fmt.Sprintf("skilldiff:budget:%d", now.Truncate(window).Unix())
}

// MemoryQuota allows at most Max runs per fixed window in this process
type MemoryQuota struct {
	max     int64
	window  time.Duration
	counter *cache.MemoryCache
	now     func() time.Time
}

// NewMemoryQuota creates an in-process quota
func NewMemoryQuota(max int64, window time.Duration) *MemoryQuota {
	return &MemoryQuota{
		max:     max,
		window:  window,
		counter: cache.NewMemoryCache(window, window),
		now:     time.Now,
	}
}

// Allow counts the run and reports whether it is within the quota
func (q *MemoryQuota) Allow(ctx context.Context) (bool, error) {
	n, err := q.counter.Incr(windowKey(q.now(), q.window), q.window)
	if err != nil {
		return false, fmt.Errorf("increment budget counter: %w", err)
	}
	return n <= q.max, nil
}

// RedisQuota allows at most Max runs per fixed window across processes
type RedisQuota struct {
	max    int64
	window time.Duration
	client *redis.Client
	now    func() time.Time
}

// NewRedisQuota connects to redisURL (redis://host:port/db)
func NewRedisQuota(redisURL string, max int64, window time.Duration) (*RedisQuota, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return newRedisQuota(redis.NewClient(opts), max, window), nil
}

func newRedisQuota(client *redis.Client, max int64, window time.Duration) *RedisQuota {
	return &RedisQuota{max: max, window: window, client: client, now: time.Now}
}

// Allow counts the run and reports whether it is within the quota
func (q *RedisQuota) Allow(ctx context.Context) (bool, error) {
	key := windowKey(q.now(), q.window)

	var incr *redis.IntCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, q.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("increment budget counter: %w", err)
	}
	return incr.Val() <= q.max, nil
}

// Close releases the client
func (q *RedisQuota) Close() error {
	return q.client.Close()
}

// New builds the gate selected by cfg.Mode
func New(cfg model.BudgetConfig) (Gate, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", ModeOff:
		return Off{}, nil
	case ModeOn:
		return Exhausted{}, nil
	case ModeQuota:
		if cfg.MaxSubmissions <= 0 {
			return nil, fmt.Errorf("budget.max_submissions must be positive in quota mode")
		}
		window := cfg.Window
		if window <= 0 {
			window = 24 * time.Hour
		}
		if cfg.RedisURL != "" {
			return NewRedisQuota(cfg.RedisURL, cfg.MaxSubmissions, window)
		}
		return NewMemoryQuota(cfg.MaxSubmissions, window), nil
	default:
		return nil, fmt.Errorf("unknown budget mode %q (want off, on or quota)", cfg.Mode)
	}
}
