// Package cart holds the shopping cart state for one browser session and
// keeps it in step with durable storage.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront/internal/notify"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/shopspring/decimal"
)

// Options wires a Store to its collaborators. Storage and SessionID are required.
type Options struct {
	Storage   storage.Store
	SessionID string
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
}

// Store is the cart of one browser session. Content changes are written to
// storage before they become visible, so a failed write leaves the cart as it
// was. All methods are safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	items []LineItem
	open  bool

	// dispatchMu keeps observer calls in commit order.
	dispatchMu sync.Mutex
	observers  []observer
	nextID     int

	storage   storage.Store
	sessionID string
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
}

type observer struct {
	id int
	fn func(State)
}

// Hydrate builds a store from whatever is persisted for the session. Missing
// data yields an empty cart, and so does unreadable data, which is logged and
// otherwise ignored. Only a failing storage backend is reported.
func Hydrate(ctx context.Context, opts Options) (*Store, error) {
	if opts.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart storage is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	s := &Store{
		items:     []LineItem{},
		storage:   opts.Storage,
		sessionID: opts.SessionID,
		logg:      opts.Logger,
		metrics:   opts.Metrics,
	}

	raw, ok, err := opts.Storage.Get(ctx, opts.SessionID, StorageName)
	if err != nil {
		s.metrics.IncPersistenceFailure("read")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !ok {
		return s, nil
	}

	items, err := Decode(raw)
	if err != nil {
		s.metrics.IncPersistenceFailure("read")
		warnCtx := s.logg.WithFields(ctx, map[string]any{
			"session_id": opts.SessionID,
			"error":      err.Error(),
		})
		s.logg.Warn(warnCtx, "cart.hydrate.discarded")
		return s, nil
	}

	s.items = items
	s.metrics.IncHydrated()
	return s, nil
}

// QuantityOf returns the quantity of the product, or 0 when absent.
func (s *Store) QuantityOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i].Quantity
	}
	return 0
}

// Increase adds one unit of the product, appending a new line when absent.
func (s *Store) Increase(ctx context.Context, item ItemInput) error {
	return s.AddQuantity(ctx, item, 1)
}

// AddQuantity adds n units of the product in a single write.
func (s *Store) AddQuantity(ctx context.Context, item ItemInput, n int) error {
	if err := validateInput(item, n); err != nil {
		s.metrics.IncOperation("increase", metrics.ResultError)
		return err
	}

	var existed bool
	err := s.mutate(ctx, "increase", func(items []LineItem) ([]LineItem, bool) {
		if i := indexOf(items, item.ID); i >= 0 {
			existed = true
			items[i].Quantity += n
			return items, true
		}
		return append(items, LineItem{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Image:    item.Image,
			Quantity: n,
		}), true
	})
	if err != nil {
		return err
	}

	if existed {
		notify.Info(ctx, "", fmt.Sprintf("%s quantity updated.", item.Name))
	} else {
		notify.Info(ctx, "Added to cart", fmt.Sprintf("%s has been added to your cart.", item.Name))
	}
	return nil
}

// Decrease removes one unit, dropping the line when it reaches zero. Unknown
// ids are a no-op.
func (s *Store) Decrease(ctx context.Context, id string) error {
	return s.mutate(ctx, "decrease", func(items []LineItem) ([]LineItem, bool) {
		i := indexOf(items, id)
		if i < 0 {
			return items, false
		}
		if items[i].Quantity > 1 {
			items[i].Quantity--
			return items, true
		}
		return append(items[:i], items[i+1:]...), true
	})
}

// Remove drops the whole line. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	var name string
	var removed bool
	err := s.mutate(ctx, "remove", func(items []LineItem) ([]LineItem, bool) {
		i := indexOf(items, id)
		if i < 0 {
			return items, false
		}
		name, removed = items[i].Name, true
		return append(items[:i], items[i+1:]...), true
	})
	if err != nil {
		return err
	}
	if removed {
		notify.Info(ctx, "", fmt.Sprintf("%s removed from your cart.", name))
	}
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	err := s.mutate(ctx, "clear", func([]LineItem) ([]LineItem, bool) {
		return []LineItem{}, true
	})
	if err != nil {
		return err
	}
	notify.Info(ctx, "", "Your cart has been cleared.")
	return nil
}

// Open marks the cart as visible. Visibility is never persisted.
func (s *Store) Open() {
	s.setOpen(true)
}

func (s *Store) Close() {
	s.setOpen(false)
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalQuantity(s.items)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.items)
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every committed change and immediately calls it
// with the current state. Observers run synchronously after the change and
// must not call back into the store. The returned func removes the observer.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	state := s.snapshotLocked()
	s.dispatchMu.Lock()
	s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	fn(state)
	s.dispatchMu.Unlock()

	return func() {
		s.dispatchMu.Lock()
		defer s.dispatchMu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) setOpen(open bool) {
	s.mu.Lock()
	if s.open == open {
		s.mu.Unlock()
		return
	}
	s.open = open
	state := s.snapshotLocked()
	s.dispatchMu.Lock()
	s.mu.Unlock()

	s.dispatch(state)
}

// mutate applies change to a copy of the items. When change reports a
// modification, the result is persisted and only then committed.
func (s *Store) mutate(ctx context.Context, op string, change func([]LineItem) ([]LineItem, bool)) error {
	s.mu.Lock()

	next, changed := change(cloneItems(s.items))
	if !changed {
		s.mu.Unlock()
		s.metrics.IncOperation(op, metrics.ResultNoop)
		return nil
	}

	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		s.metrics.IncOperation(op, metrics.ResultError)
		return err
	}

	s.items = next
	state := s.snapshotLocked()
	s.dispatchMu.Lock()
	s.mu.Unlock()

	s.metrics.IncOperation(op, metrics.ResultOK)
	s.dispatch(state)
	return nil
}

func (s *Store) persist(ctx context.Context, items []LineItem) error {
	payload, err := Encode(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.storage.Put(ctx, s.sessionID, StorageName, payload); err != nil {
		s.metrics.IncPersistenceFailure("write")
		s.logg.Error(s.logg.WithField(ctx, "session_id", s.sessionID), "cart.persist.failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart could not be saved")
	}
	return nil
}

// dispatch must be called with dispatchMu held; it releases it.
func (s *Store) dispatch(state State) {
	defer s.dispatchMu.Unlock()
	for _, o := range s.observers {
		o.fn(state)
	}
}

func (s *Store) snapshotLocked() State {
	return State{Items: cloneItems(s.items), Open: s.open}
}

func validateInput(item ItemInput, n int) error {
	var problems []string
	if item.ID == "" {
		problems = append(problems, "id is required")
	}
	if item.Price.IsNegative() {
		problems = append(problems, "price must not be negative")
	}
	if n < 1 {
		problems = append(problems, "quantity must be at least 1")
	}
	if len(problems) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").
		WithDetails(map[string]any{"problems": problems})
}
