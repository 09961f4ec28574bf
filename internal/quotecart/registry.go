package quotecart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"

	"github.com/angelmondragon/quotecart/pkg/logger"
	"github.com/angelmondragon/quotecart/pkg/metrics"
)

// DefaultKeyPrefix namespaces cart keys in shared storage.
const DefaultKeyPrefix = "quote_cart"

const (
	defaultMaxSessions = 10000
	defaultIdleTTL     = 30 * time.Minute
)

var ErrSessionRequired = errors.New("cart session id is required")

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Storage   Storage
	KeyPrefix string
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
	NewID     func() string

	// MaxSessions bounds the cached stores; the least recently used goes first.
	MaxSessions int
	// IdleTTL drops a cached store that has not been used for this long. Keep
	// it at or below the storage TTL.
	IdleTTL time.Duration
	// SweepStorage makes Run also delete expired keys from Storage when the
	// backend supports it.
	SweepStorage bool
	Now          func() time.Time
}

// Registry hands out one Store per cart session. Stores are opened lazily and
// cached so concurrent requests on a session share one mutex; every Get
// re-reads storage, so the cache never serves state storage no longer holds.
type Registry struct {
	opts RegistryOptions

	mu      sync.Mutex
	entries *lru.Cache[string, *registryEntry]
}

// registryEntry is filled in once by the goroutine that created it; ready is
// closed afterwards. lastUsed is guarded by Registry.mu.
type registryEntry struct {
	ready    chan struct{}
	store    *Store
	err      error
	lastUsed time.Time
}

func (e *registryEntry) opened() bool {
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}

type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.Storage == nil {
		return nil, errors.New("storage is required")
	}
	if strings.TrimSpace(opts.KeyPrefix) == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	entries, err := lru.New[string, *registryEntry](opts.MaxSessions)
	if err != nil {
		return nil, err
	}
	return &Registry{opts: opts, entries: entries}, nil
}

// KeyFor returns the storage key of a session.
func (r *Registry) KeyFor(sessionID string) string {
	return r.opts.KeyPrefix + ":" + sessionID
}

// Get returns the session's store, opening it on first use and refreshing it
// from storage on every later use.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	now := r.opts.Now()
	r.mu.Lock()
	entry, ok := r.entries.Get(sessionID)
	if ok && entry.opened() && r.idle(entry, now) {
		r.entries.Remove(sessionID)
		ok = false
	}
	if !ok {
		entry = &registryEntry{ready: make(chan struct{})}
		r.entries.Add(sessionID, entry)
	}
	entry.lastUsed = now
	r.mu.Unlock()

	if !ok {
		entry.store, entry.err = Open(ctx, Options{
			Key:     r.KeyFor(sessionID),
			Storage: r.opts.Storage,
			Logger:  r.opts.Logger,
			Metrics: r.opts.Metrics,
			NewID:   r.opts.NewID,
		})
		close(entry.ready)
		if entry.err != nil {
			r.mu.Lock()
			if current, found := r.entries.Peek(sessionID); found && current == entry {
				r.entries.Remove(sessionID)
			}
			r.mu.Unlock()
			return nil, entry.err
		}
		return entry.store, nil
	}

	select {
	case <-entry.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if entry.err != nil {
		return nil, entry.err
	}
	entry.store.Refresh(ctx)
	return entry.store, nil
}

func (r *Registry) idle(entry *registryEntry, now time.Time) bool {
	return now.Sub(entry.lastUsed) >= r.opts.IdleTTL
}

// Evict forgets a session's cached store. Persisted state is kept.
func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	r.entries.Remove(strings.TrimSpace(sessionID))
	r.mu.Unlock()
}

// Prune drops every cached store idle for at least IdleTTL and reports how
// many were dropped.
func (r *Registry) Prune() int {
	now := r.opts.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for _, key := range r.entries.Keys() {
		entry, ok := r.entries.Peek(key)
		if !ok || !entry.opened() || !r.idle(entry, now) {
			continue
		}
		r.entries.Remove(key)
		pruned++
	}
	return pruned
}

// Run prunes idle stores every interval until ctx is done. With SweepStorage
// it also deletes expired keys from a storage backend that supports it.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = r.opts.IdleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Registry) sweep(ctx context.Context) {
	pruned := r.Prune()
	var expired int64
	if exp, ok := r.opts.Storage.(expirer); ok && r.opts.SweepStorage {
		n, err := exp.DeleteExpired(ctx)
		if err != nil && r.opts.Logger != nil {
			r.opts.Logger.Error(ctx, "failed to delete expired carts", err)
		}
		expired = n
		r.opts.Metrics.AddExpired(n)
	}
	if r.opts.Logger != nil && (pruned > 0 || expired > 0) {
		r.opts.Logger.Debug(r.opts.Logger.WithFields(ctx, map[string]any{
			"pruned":  pruned,
			"expired": expired,
			"cached":  r.Len(),
		}), "cart registry swept")
	}
}

// Len reports how many sessions are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Len()
}

// Flush retries pending writes of every open store, collecting all failures.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	stores := make([]*Store, 0, r.entries.Len())
	for _, entry := range r.entries.Values() {
		if entry.opened() {
			stores = append(stores, entry.store)
		}
	}
	r.mu.Unlock()

	var errs error
	for _, store := range stores {
		if err := store.Flush(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
