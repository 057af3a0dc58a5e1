package cart

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront/internal/notify"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type stubStorage struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	putErr error
	gets   int
	puts   int
}

func newStubStorage() *stubStorage {
	return &stubStorage{data: make(map[string][]byte)}
}

func (s *stubStorage) Get(_ context.Context, sessionID, name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[sessionID+"/"+name]
	return v, ok, nil
}

func (s *stubStorage) Put(_ context.Context, sessionID, name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.data[sessionID+"/"+name] = append([]byte(nil), value...)
	return nil
}

func (s *stubStorage) Delete(_ context.Context, sessionID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID+"/"+name)
	return nil
}

func (s *stubStorage) Ping(context.Context) error { return nil }
func (s *stubStorage) Close() error               { return nil }

func (s *stubStorage) raw(sessionID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[sessionID+"/"+StorageName]
}

func (s *stubStorage) failWrites(err error) {
	s.mu.Lock()
	s.putErr = err
	s.mu.Unlock()
}

var (
	watch = ItemInput{ID: "1", Name: "Watch", Price: decimal.RequireFromString("249.99"), Image: "x"}
	bag   = ItemInput{ID: "2", Name: "Backpack", Price: decimal.RequireFromString("189.99"), Image: "y"}
	mug   = ItemInput{ID: "4", Name: "Mug Set", Price: decimal.RequireFromString("49.99"), Image: "z"}
)

func newTestStore(t *testing.T, st *stubStorage) *Store {
	t.Helper()
	s, err := Hydrate(context.Background(), Options{Storage: st, SessionID: "sess"})
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	return s
}

func quantities(items []LineItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, item := range items {
		out[item.ID] = item.Quantity
	}
	return out
}

func TestIncreaseTwiceAccumulates(t *testing.T) {
	st := newStubStorage()
	s := newTestStore(t, st)
	ctx := context.Background()

	if err := s.Increase(ctx, watch); err != nil {
		t.Fatalf("increase: %v", err)
	}
	if err := s.Increase(ctx, watch); err != nil {
		t.Fatalf("increase: %v", err)
	}

	items := s.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", items)
	}
	if !s.TotalPrice().Equal(decimal.RequireFromString("499.98")) {
		t.Fatalf("expected total 499.98, got %s", s.TotalPrice())
	}
	if s.TotalQuantity() != 2 || s.QuantityOf("1") != 2 {
		t.Fatalf("unexpected totals qty=%d quantityOf=%d", s.TotalQuantity(), s.QuantityOf("1"))
	}

	want := `[{"id":"1","name":"Watch","price":249.99,"image":"x","quantity":2}]`
	if got := string(st.raw("sess")); got != want {
		t.Fatalf("unexpected persisted payload\nwant %s\ngot  %s", want, got)
	}
}

func TestDecreaseRemovesAtOne(t *testing.T) {
	st := newStubStorage()
	s := newTestStore(t, st)
	ctx := context.Background()

	_ = s.Increase(ctx, watch)
	for i := 0; i < 3; i++ {
		_ = s.Increase(ctx, bag)
	}

	if err := s.Decrease(ctx, "1"); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"2": 3}, quantities(s.Items())); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}

	if err := s.Decrease(ctx, "2"); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if s.QuantityOf("2") != 2 {
		t.Fatalf("expected quantity 2, got %d", s.QuantityOf("2"))
	}
}

func TestAbsentIDsAreNoops(t *testing.T) {
	st := newStubStorage()
	s := newTestStore(t, st)
	ctx := notify.WithBuffer(context.Background(), notify.NewBuffer())

	_ = s.Increase(ctx, watch)
	notify.Drain(ctx)
	writes := st.puts

	if err := s.Decrease(ctx, "missing"); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if st.puts != writes {
		t.Fatalf("expected no writes for absent ids, got %d extra", st.puts-writes)
	}
	if got := notify.Drain(ctx); len(got) != 0 {
		t.Fatalf("expected no notifications, got %+v", got)
	}
	if s.QuantityOf("missing") != 0 {
		t.Fatal("absent id should report 0")
	}
}

func TestInsertionOrderSurvivesQuantityChanges(t *testing.T) {
	s := newTestStore(t, newStubStorage())
	ctx := context.Background()

	_ = s.Increase(ctx, watch)
	_ = s.Increase(ctx, bag)
	_ = s.Increase(ctx, mug)
	_ = s.Increase(ctx, watch)
	_ = s.Decrease(ctx, "2")
	_ = s.Increase(ctx, bag)

	got := []string{}
	for _, item := range s.Items() {
		got = append(got, item.ID)
	}
	if diff := cmp.Diff([]string{"1", "4", "2"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveAndClear(t *testing.T) {
	st := newStubStorage()
	s := newTestStore(t, st)
	ctx := context.Background()

	_ = s.Increase(ctx, watch)
	_ = s.Increase(ctx, bag)

	if err := s.Remove(ctx, "1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.QuantityOf("1") != 0 || s.TotalQuantity() != 1 {
		t.Fatalf("unexpected state after remove: %+v", s.Items())
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(s.Items()) != 0 || !s.TotalPrice().IsZero() {
		t.Fatalf("expected empty cart, got %+v", s.Items())
	}
	if got := string(st.raw("sess")); got != "[]" {
		t.Fatalf("expected empty array persisted, got %q", got)
	}
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t, newStubStorage())
	ctx := notify.WithBuffer(context.Background(), notify.NewBuffer())

	_ = s.Increase(ctx, watch)
	_ = s.Increase(ctx, watch)
	_ = s.Remove(ctx, "1")
	_ = s.Clear(ctx)

	var got []string
	for _, n := range notify.Drain(ctx) {
		got = append(got, n.Title+"|"+n.Description)
	}
	want := []string{
		"Added to cart|Watch has been added to your cart.",
		"|Watch quantity updated.",
		"|Watch removed from your cart.",
		"|Your cart has been cleared.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestFailedWriteLeavesCartUnchanged(t *testing.T) {
	st := newStubStorage()
	s := newTestStore(t, st)
	ctx := notify.WithBuffer(context.Background(), notify.NewBuffer())

	_ = s.Increase(ctx, watch)
	notify.Drain(ctx)
	before := s.Snapshot()
	persisted := append([]byte(nil), st.raw("sess")...)

	st.failWrites(errors.New("disk full"))

	ops := map[string]func() error{
		"increase": func() error { return s.Increase(ctx, bag) },
		"decrease": func() error { return s.Decrease(ctx, "1") },
		"remove":   func() error { return s.Remove(ctx, "1") },
		"clear":    func() error { return s.Clear(ctx) },
	}
	for name, op := range ops {
		err := op()
		if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
			t.Fatalf("%s: expected dependency error, got %v", name, err)
		}
		if diff := cmp.Diff(before.Items, s.Items(), cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
			t.Fatalf("%s: memory diverged (-before +after):\n%s", name, diff)
		}
		if !bytes.Equal(persisted, st.raw("sess")) {
			t.Fatalf("%s: storage changed", name)
		}
	}
	if got := notify.Drain(ctx); len(got) != 0 {
		t.Fatalf("failed operations should not notify, got %+v", got)
	}
}

func TestIncreaseValidation(t *testing.T) {
	s := newTestStore(t, newStubStorage())
	ctx := context.Background()

	if err := s.Increase(ctx, ItemInput{Name: "no id"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := s.Increase(ctx, ItemInput{ID: "x", Price: decimal.NewFromInt(-1)}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
	if err := s.AddQuantity(ctx, watch, 0); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
}

func TestAddQuantity(t *testing.T) {
	st := newStubStorage()
	s := newTestStore(t, st)
	ctx := context.Background()

	if err := s.AddQuantity(ctx, mug, 3); err != nil {
		t.Fatalf("add quantity: %v", err)
	}
	if err := s.AddQuantity(ctx, mug, 2); err != nil {
		t.Fatalf("add quantity: %v", err)
	}
	if s.QuantityOf("4") != 5 {
		t.Fatalf("expected 5 mugs, got %d", s.QuantityOf("4"))
	}
	if st.puts != 2 {
		t.Fatalf("expected one write per call, got %d", st.puts)
	}
}

func TestOpenCloseDoNotPersist(t *testing.T) {
	st := newStubStorage()
	s := newTestStore(t, st)

	s.Open()
	if !s.IsOpen() {
		t.Fatal("expected open cart")
	}
	s.Close()
	if s.IsOpen() {
		t.Fatal("expected closed cart")
	}
	if st.puts != 0 {
		t.Fatalf("visibility must not persist, got %d writes", st.puts)
	}
}

func TestHydrate(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		want  map[string]int
		warns bool
	}{
		{name: "valid", raw: `[{"id":"1","name":"Watch","price":249.99,"image":"x","quantity":2}]`, want: map[string]int{"1": 2}},
		{name: "empty array", raw: `[]`, want: map[string]int{}},
		{name: "garbage", raw: `not json at all`, want: map[string]int{}, warns: true},
		{name: "zero quantity", raw: `[{"id":"1","price":1,"quantity":0}]`, want: map[string]int{}, warns: true},
		{name: "missing id", raw: `[{"price":1,"quantity":1}]`, want: map[string]int{}, warns: true},
		{name: "negative price", raw: `[{"id":"1","price":-5,"quantity":1}]`, want: map[string]int{}, warns: true},
		{name: "duplicate ids", raw: `[{"id":"1","price":1,"quantity":1},{"id":"1","price":1,"quantity":2}]`, want: map[string]int{}, warns: true},
		{name: "wrong shape", raw: `{"id":"1"}`, want: map[string]int{}, warns: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newStubStorage()
			st.data["sess/"+StorageName] = []byte(tc.raw)

			var logs bytes.Buffer
			logg := logger.New(logger.Options{Level: zerolog.DebugLevel, Output: &logs})

			s, err := Hydrate(context.Background(), Options{Storage: st, SessionID: "sess", Logger: logg})
			if err != nil {
				t.Fatalf("hydrate must not fail on stored data: %v", err)
			}
			if diff := cmp.Diff(tc.want, quantities(s.Items())); diff != "" {
				t.Fatalf("items mismatch (-want +got):\n%s", diff)
			}
			if got := strings.Contains(logs.String(), "cart.hydrate.discarded"); got != tc.warns {
				t.Fatalf("expected warn=%v, logs: %s", tc.warns, logs.String())
			}
		})
	}
}

func TestHydrateStorageFailure(t *testing.T) {
	st := newStubStorage()
	st.getErr = errors.New("connection refused")

	_, err := Hydrate(context.Background(), Options{Storage: st, SessionID: "sess"})
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSubscribeReplaysAndFollowsChanges(t *testing.T) {
	s := newTestStore(t, newStubStorage())
	ctx := context.Background()
	_ = s.Increase(ctx, watch)

	var seen []int
	unsubscribe := s.Subscribe(func(state State) {
		seen = append(seen, state.TotalQuantity())
	})

	_ = s.Increase(ctx, bag)
	_ = s.Decrease(ctx, "missing")
	s.Open()
	unsubscribe()
	_ = s.Increase(ctx, mug)

	if diff := cmp.Diff([]int{1, 2, 2}, seen); diff != "" {
		t.Fatalf("observer calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	st := newStubStorage()
	s := newTestStore(t, st)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	inputs := []ItemInput{watch, bag, mug}

	for i := 0; i < 500; i++ {
		in := inputs[rng.Intn(len(inputs))]
		switch rng.Intn(5) {
		case 0, 1:
			_ = s.Increase(ctx, in)
		case 2:
			_ = s.Decrease(ctx, in.ID)
		case 3:
			_ = s.Remove(ctx, in.ID)
		case 4:
			if rng.Intn(10) == 0 {
				_ = s.Clear(ctx)
			}
		}

		items := s.Items()
		seen := map[string]bool{}
		for _, item := range items {
			if item.Quantity < 1 {
				t.Fatalf("step %d: quantity below 1: %+v", i, item)
			}
			if seen[item.ID] {
				t.Fatalf("step %d: duplicate line %s", i, item.ID)
			}
			seen[item.ID] = true
		}

		raw := st.raw("sess")
		if raw == nil {
			continue
		}
		persisted, err := Decode(raw)
		if err != nil {
			t.Fatalf("step %d: persisted data unreadable: %v", i, err)
		}
		sum := 0
		for _, item := range persisted {
			sum += item.Quantity
		}
		if sum != s.TotalQuantity() {
			t.Fatalf("step %d: persisted %d != memory %d", i, sum, s.TotalQuantity())
		}
	}
}

func TestConcurrentIncreases(t *testing.T) {
	s := newTestStore(t, newStubStorage())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Increase(ctx, watch)
		}()
	}
	wg.Wait()

	if s.QuantityOf("1") != 50 {
		t.Fatalf("expected 50, got %d", s.QuantityOf("1"))
	}
}
