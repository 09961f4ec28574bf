package quotecart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/angelmondragon/quotecart/pkg/logger"
	"github.com/angelmondragon/quotecart/pkg/metrics"
	"github.com/google/uuid"
)

const (
	opAdd    = "add"
	opMerge  = "merge"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
	opSubmit = "submit"
)

// Options configures a Store.
type Options struct {
	// Key is the storage key the cart is persisted under.
	Key     string
	Storage Storage
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
	// NewID generates line ids; defaults to random UUIDs.
	NewID func() string
}

// Store owns one cart session. Mutations are serialized, start from the
// persisted cart and are persisted before the next begins; readers only ever
// see fully applied states.
type Store struct {
	key     string
	storage Storage
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	newID   func() string

	mu    sync.Mutex
	order []string
	lines map[string]Line
	dirty bool

	current atomic.Pointer[View]

	watchMu  sync.Mutex
	watchers map[uint64]chan View
	nextW    uint64
}

// Open builds a Store and loads any previously persisted cart. Unreadable
// state is logged and replaced by an empty cart.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Key == "" {
		return nil, errors.New("storage key is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("storage is required")
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	s := &Store{
		key:      opts.Key,
		storage:  opts.Storage,
		logg:     opts.Logger,
		metrics:  opts.Metrics,
		newID:    newID,
		lines:    make(map[string]Line),
		watchers: make(map[uint64]chan View),
	}
	s.load(ctx)
	s.publish()
	return s, nil
}

// Key returns the storage key backing the store.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) load(ctx context.Context) {
	if lines, ok := s.read(ctx); ok {
		s.replaceLocked(lines)
	}
}

// read fetches the persisted lines. ok is false only when storage could not be
// reached; missing and unreadable values both read as an empty cart.
func (s *Store) read(ctx context.Context) ([]Line, bool) {
	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.metrics.IncLoadFailure("storage")
		s.warn(ctx, "cart storage unavailable, using in-memory cart", err)
		return nil, false
	}
	if !found {
		return nil, true
	}

	lines, dropped, err := decodeLines(raw)
	if err != nil {
		s.metrics.IncLoadFailure("decode")
		s.warn(ctx, "persisted cart unreadable, starting empty", err)
		return nil, true
	}
	if dropped > 0 {
		s.metrics.IncLoadFailure("invalid_line")
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cart_key": s.key, "dropped": dropped}), "discarded invalid persisted cart lines")
		}
	}
	return lines, true
}

// syncLocked re-reads storage so a mutation starts from the persisted cart.
// Storage is the authority: another process may have written the key, or it
// may have expired. A store whose last write failed is ahead of storage and
// keeps its own state until a write succeeds.
func (s *Store) syncLocked(ctx context.Context) {
	if s.dirty {
		return
	}
	if lines, ok := s.read(ctx); ok {
		s.replaceLocked(lines)
	}
}

func (s *Store) replaceLocked(lines []Line) {
	s.order = make([]string, 0, len(lines))
	s.lines = make(map[string]Line, len(lines))
	for _, line := range lines {
		s.order = append(s.order, line.ID)
		s.lines[line.ID] = line
	}
}

// Refresh reloads the cart from storage and publishes the result.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked(ctx)
	s.publish()
}

// AddSelection adds the resolved option of product to the cart, merging into an
// existing line for the same slug and option. It reports false, without
// touching state, when the product has no options.
func (s *Store) AddSelection(ctx context.Context, product Product, optionLabel string, quantity int) (Line, bool) {
	opt, ok := resolveOption(product.Options, optionLabel)
	if !ok {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cart_key": s.key, "slug": product.Slug}), "add to cart ignored: product has no options")
		}
		return Line{}, false
	}
	minQty := normalizeMinQty(opt.MinQty)
	qty := selectionQuantity(quantity, minQty)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked(ctx)

	if id, exists := s.findPairLocked(product.Slug, opt.Label); exists {
		line := s.lines[id]
		line.Quantity += qty
		s.lines[id] = line
		s.commitLocked(ctx, opMerge)
		return line, true
	}

	line := Line{
		ID:        s.newID(),
		Slug:      product.Slug,
		Name:      product.Name,
		Option:    opt.Label,
		MinQty:    minQty,
		Quantity:  qty,
		Available: opt.Available,
	}
	s.order = append(s.order, line.ID)
	s.lines[line.ID] = line
	s.commitLocked(ctx, opAdd)
	return line, true
}

// UpdateQuantity sets a line's quantity, clamped up to its minimum. Unknown ids
// are silently ignored and reported as false.
func (s *Store) UpdateQuantity(ctx context.Context, id string, requested int) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked(ctx)

	line, ok := s.lines[id]
	if !ok {
		s.debugMissing(ctx, "update", id)
		return Line{}, false
	}
	line.Quantity = clampQuantity(requested, line.MinQty)
	s.lines[id] = line
	s.commitLocked(ctx, opUpdate)
	return line, true
}

// RemoveItem drops a line. Removing an unknown id is a no-op that still persists.
func (s *Store) RemoveItem(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked(ctx)

	ok := s.deleteLocked(id)
	if !ok {
		s.debugMissing(ctx, "remove", id)
	}
	s.commitLocked(ctx, opRemove)
	return ok
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.lines = make(map[string]Line)
	s.commitLocked(ctx, opClear)
}

// RemoveSubmitted drops the lines of a submitted snapshot that are still in the
// cart unchanged. Lines added, or re-quantified, after the snapshot was taken
// stay. It reports how many lines were removed.
func (s *Store) RemoveSubmitted(ctx context.Context, submitted []Line) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked(ctx)

	removed := 0
	for _, sent := range submitted {
		current, ok := s.lines[sent.ID]
		if !ok || current.Quantity != sent.Quantity || current.Option != sent.Option {
			continue
		}
		s.deleteLocked(sent.ID)
		removed++
	}
	s.commitLocked(ctx, opSubmit)
	return removed
}

// Items returns the current read-only view.
func (s *Store) Items() View {
	return *s.current.Load()
}

// Snapshot returns the lines in insertion order as of the call.
func (s *Store) Snapshot() []Line {
	return s.Items().Items()
}

// Flush retries a write that failed earlier and returns any write error. A
// store already in step with storage writes nothing.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persistLocked(ctx)
}

// Watch streams views, starting with the current one. Only the latest
// unread view is buffered. The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context) <-chan View {
	ch := make(chan View, 1)

	s.watchMu.Lock()
	id := s.nextW
	s.nextW++
	s.watchers[id] = ch
	ch <- s.Items()
	s.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		s.watchMu.Lock()
		delete(s.watchers, id)
		close(ch)
		s.watchMu.Unlock()
	}()
	return ch
}

func (s *Store) deleteLocked(id string) bool {
	if _, ok := s.lines[id]; !ok {
		return false
	}
	delete(s.lines, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) findPairLocked(slug, option string) (string, bool) {
	for _, id := range s.order {
		line := s.lines[id]
		if line.Slug == slug && line.Option == option {
			return id, true
		}
	}
	return "", false
}

// commitLocked persists the state, then publishes it. A failed write is logged
// and the in-memory mutation stands.
func (s *Store) commitLocked(ctx context.Context, op string) {
	s.metrics.IncMutation(op)
	if err := s.persistLocked(ctx); err != nil {
		s.dirty = true
		s.metrics.IncPersistFailure()
		if s.logg != nil {
			s.logg.Error(s.logg.WithFields(ctx, map[string]any{"cart_key": s.key, "op": op}), "failed to persist cart", err)
		}
	}
	s.publish()
}

func (s *Store) persistLocked(ctx context.Context) error {
	encoded, err := encodeLines(s.snapshotLocked())
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, s.key, encoded); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *Store) snapshotLocked() []Line {
	out := make([]Line, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.lines[id])
	}
	return out
}

func (s *Store) publish() {
	view := newView(s.snapshotLocked())
	s.current.Store(&view)

	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- view
	}
}

func (s *Store) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cart_key": s.key, "error": err.Error()}), msg)
}

func (s *Store) debugMissing(ctx context.Context, op, id string) {
	if s.logg == nil {
		return
	}
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"cart_key": s.key, "op": op, "item_id": id}), "cart line not found")
}
