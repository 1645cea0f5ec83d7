package orders

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/orderbot/core/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "orders.db"),
	}
	if err := database.RunMigrations(cfg, Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	s := New(db, 5*time.Second)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreate(t *testing.T, s *Store, owner int64, client string, budget int64, deadline string) int64 {
	t.Helper()
	id, err := s.Create(context.Background(), owner, client, decimal.NewFromInt(budget), deadline)
	if err != nil {
		t.Fatalf("create %q: %v", client, err)
	}
	return id
}

func TestCreateThenList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := mustCreate(t, s, 1, "Acme", 100, "2025-01-01")

	list, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 order, got %d", len(list))
	}
	got := list[0]
	if got.ID != id || got.ClientName != "Acme" || got.Deadline != "2025-01-01" || got.Status != StatusActive {
		t.Fatalf("unexpected order %+v", got)
	}
	if !got.Budget.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("budget = %s, want 100", got.Budget)
	}
	if other, _ := s.List(ctx, 2); len(other) != 0 {
		t.Fatalf("owner 2 sees %d orders", len(other))
	}
}

func TestCreateValidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, 1, "Acme", decimal.NewFromInt(-1), "2025-01-01"); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("negative budget err = %v", err)
	}
	if _, err := s.Create(ctx, 1, "   ", decimal.NewFromInt(1), "2025-01-01"); !errors.Is(err, ErrEmptyClient) {
		t.Fatalf("blank client err = %v", err)
	}
	id, err := s.Create(ctx, 1, "Cents", decimal.RequireFromString("19.999"), "2025-01-01")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	o, err := s.Get(ctx, 1, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if o.Budget.StringFixed(2) != "20.00" {
		t.Fatalf("budget rounded to %s", o.Budget.StringFixed(2))
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mine := mustCreate(t, s, 1, "Acme", 100, "2025-01-01")
	theirs := mustCreate(t, s, 2, "Globex", 50, "2025-02-01")

	if err := s.Delete(ctx, 1, theirs); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, 1, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing delete err = %v, want ErrNotFound", err)
	}
	if list, _ := s.List(ctx, 2); len(list) != 1 {
		t.Fatalf("foreign order was touched: %d rows", len(list))
	}

	if err := s.Delete(ctx, 1, mine); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if list, _ := s.List(ctx, 1); len(list) != 0 {
		t.Fatalf("order still listed after delete: %+v", list)
	}
	if _, err := s.Get(ctx, 1, mine); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted err = %v", err)
	}
}

func TestUpdateStatusScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mine := mustCreate(t, s, 1, "Acme", 100, "2025-01-01")
	theirs := mustCreate(t, s, 2, "Globex", 50, "2025-02-01")

	if err := s.UpdateStatus(ctx, 1, theirs, StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update err = %v, want ErrNotFound", err)
	}
	if o, _ := s.Get(ctx, 2, theirs); o.Status != StatusActive {
		t.Fatalf("foreign order status changed to %s", o.Status)
	}
	if err := s.UpdateStatus(ctx, 1, mine, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bogus status err = %v", err)
	}
	if err := s.UpdateStatus(ctx, 1, mine, StatusInProgress); err != nil {
		t.Fatalf("update: %v", err)
	}
	if o, _ := s.Get(ctx, 1, mine); o.Status != StatusInProgress {
		t.Fatalf("status = %s, want InProgress", o.Status)
	}
}

func TestFilterNeverLeaksOtherOwnersOrStatuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustCreate(t, s, 1, "A", 10, "2025-01-01")
	b := mustCreate(t, s, 1, "B", 20, "2025-01-02")
	mustCreate(t, s, 2, "C", 30, "2025-01-03")
	if err := s.UpdateStatus(ctx, 1, b, StatusCompleted); err != nil {
		t.Fatalf("update: %v", err)
	}

	active, err := s.Filter(ctx, 1, StatusActive)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(active) != 1 || active[0].ID != a {
		t.Fatalf("unexpected active set %+v", active)
	}
	for _, o := range active {
		if o.Owner != 1 || o.Status != StatusActive {
			t.Fatalf("filter leaked %+v", o)
		}
	}
	if _, err := s.Filter(ctx, 1, "Archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("unknown status err = %v", err)
	}
}

func TestSearchIsCaseSensitiveAndScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, 1, "Acme Corp", 10, "2025-01-01")
	mustCreate(t, s, 1, "acme labs", 10, "2025-01-01")
	mustCreate(t, s, 2, "Acme Other", 10, "2025-01-01")

	got, err := s.Search(ctx, 1, "Acme")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ClientName != "Acme Corp" {
		t.Fatalf("unexpected search result %+v", got)
	}
	got, _ = s.Search(ctx, 1, "me")
	if len(got) != 2 {
		t.Fatalf("substring search returned %d rows", len(got))
	}
	got, _ = s.Search(ctx, 1, "%")
	if len(got) != 0 {
		t.Fatalf("wildcard characters must match literally, got %d rows", len(got))
	}
}

func TestSumCompletedBudgetForMonth(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

	complete := func(owner int64, client string, budget string, deadline string) {
		t.Helper()
		id, err := s.Create(ctx, owner, client, decimal.RequireFromString(budget), deadline)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.UpdateStatus(ctx, owner, id, StatusCompleted); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	if sum, err := s.SumCompletedBudget(ctx, 1, now); err != nil || !sum.IsZero() {
		t.Fatalf("empty sum = %s, %v", sum, err)
	}

	complete(1, "A", "0.10", "2025-03-01")
	complete(1, "B", "0.20", "2025-03-31")
	complete(1, "C", "99", "2025-04-01")
	complete(2, "D", "5", "2025-03-10")
	mustCreate(t, s, 1, "Open", 1000, "2025-03-05")

	sum, err := s.SumCompletedBudget(ctx, 1, now)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum.StringFixed(2) != "0.30" {
		t.Fatalf("owner sum = %s, want 0.30", sum.StringFixed(2))
	}
	all, err := s.SumCompletedBudgetAll(ctx, now)
	if err != nil {
		t.Fatalf("sum all: %v", err)
	}
	if all.StringFixed(2) != "5.30" {
		t.Fatalf("all sum = %s, want 5.30", all.StringFixed(2))
	}
}

func TestConcurrentCreateAssignsDistinctIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const n = 100

	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = s.Create(ctx, 42, "Client", decimal.NewFromInt(int64(i)), "2025-01-01")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := 1; i < n; i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not distinct: %d after %d", ids[i], ids[i-1])
		}
	}
	list, err := s.List(ctx, 42)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != n {
		t.Fatalf("expected %d rows, got %d", n, len(list))
	}
	if other, _ := s.List(ctx, 43); len(other) != 0 {
		t.Fatalf("other owner sees %d rows", len(other))
	}
}

func TestSequentialIDsIncreaseAfterDelete(t *testing.T) {
	s := newTestStore(t)
	first := mustCreate(t, s, 1, "A", 1, "2025-01-01")
	second := mustCreate(t, s, 1, "B", 1, "2025-01-01")
	if err := s.Delete(context.Background(), 1, second); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third := mustCreate(t, s, 1, "C", 1, "2025-01-01")
	if !(first < second && second < third) {
		t.Fatalf("ids not strictly increasing: %d %d %d", first, second, third)
	}
}

func TestValidateBudget(t *testing.T) {
	for _, in := range []string{"0", "100.50", "10000000000000"} {
		if err := ValidateBudget(decimal.RequireFromString(in)); err != nil {
			t.Errorf("ValidateBudget(%s) = %v", in, err)
		}
	}
	for _, in := range []string{"-1", "10000000000000.01", "1e20"} {
		if err := ValidateBudget(decimal.RequireFromString(in)); !errors.Is(err, ErrInvalidBudget) {
			t.Errorf("ValidateBudget(%s) = %v, want ErrInvalidBudget", in, err)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"active":      StatusActive,
		"In Progress": StatusInProgress,
		"in_progress": StatusInProgress,
		"COMPLETED":   StatusCompleted,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseStatus("done"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if StatusInProgress.Label() != "In Progress" {
		t.Fatalf("label = %q", StatusInProgress.Label())
	}
}
