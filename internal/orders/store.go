// Package orders persists work orders. Every operation except the
// cross-owner monthly sum is scoped to the owning chat.
package orders

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/orderbot/core/logger"
)

//go:embed migrations
var migrationFiles embed.FS

// Migrations returns the schema migrations with one subdirectory per driver.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const component = "orders"

const columns = `id, owner, client_name, budget_cents, deadline, status`

type row struct {
	ID          int64  `db:"id"`
	Owner       int64  `db:"owner"`
	ClientName  string `db:"client_name"`
	BudgetCents int64  `db:"budget_cents"`
	Deadline    string `db:"deadline"`
	Status      string `db:"status"`
}

func (r row) order() Order {
	return Order{
		ID:         r.ID,
		Owner:      r.Owner,
		ClientName: r.ClientName,
		Budget:     fromCents(r.BudgetCents),
		Deadline:   r.Deadline,
		Status:     Status(r.Status),
	}
}

// Store is the SQL backed order repository.
type Store struct {
	db       *sqlx.DB
	timeout  time.Duration
	postgres bool
}

// New wraps an open connection. timeout bounds every statement; zero disables it.
func New(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{
		db:       db,
		timeout:  timeout,
		postgres: db.DriverName() == "postgres",
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create inserts a new Active order and returns its id.
func (s *Store) Create(ctx context.Context, owner int64, clientName string, budget decimal.Decimal, deadline string) (int64, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return 0, ErrEmptyClient
	}
	cents, err := toCents(budget)
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	var id int64
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO orders (owner, client_name, budget_cents, deadline, status)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		owner, clientName, cents, strings.TrimSpace(deadline), string(StatusActive),
	).Scan(&id)
	s.logWrite(ctx, "order.create", owner, id, start, err)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

// List returns all orders of owner in insertion order.
func (s *Store) List(ctx context.Context, owner int64) ([]Order, error) {
	return s.selectOrders(ctx,
		`SELECT `+columns+` FROM orders WHERE owner = ? ORDER BY id`, owner)
}

// Filter returns the owner's orders with the given status.
func (s *Store) Filter(ctx context.Context, owner int64, status Status) ([]Order, error) {
	st, err := ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	return s.selectOrders(ctx,
		`SELECT `+columns+` FROM orders WHERE owner = ? AND status = ? ORDER BY id`, owner, string(st))
}

// Search returns the owner's orders whose client name contains substr.
// Matching is case-sensitive on every driver.
func (s *Store) Search(ctx context.Context, owner int64, substr string) ([]Order, error) {
	fn := "instr"
	if s.postgres {
		fn = "strpos"
	}
	return s.selectOrders(ctx,
		`SELECT `+columns+` FROM orders WHERE owner = ? AND `+fn+`(client_name, ?) > 0 ORDER BY id`,
		owner, substr)
}

// Get returns a single order of owner.
func (s *Store) Get(ctx context.Context, owner, id int64) (Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var r row
	err := s.db.GetContext(ctx, &r, s.db.Rebind(
		`SELECT `+columns+` FROM orders WHERE id = ? AND owner = ?`), id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return r.order(), nil
}

// UpdateStatus changes the status of one of owner's orders.
func (s *Store) UpdateStatus(ctx context.Context, owner, id int64, status Status) error {
	st, err := ParseStatus(string(status))
	if err != nil {
		return err
	}
	start := time.Now()
	err = s.withOwnedRow(ctx, owner, id, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE orders SET status = ? WHERE id = ? AND owner = ?`), string(st), id, owner)
		return err
	})
	s.logWrite(ctx, "order.update_status", owner, id, start, err)
	return err
}

// Delete physically removes one of owner's orders.
func (s *Store) Delete(ctx context.Context, owner, id int64) error {
	start := time.Now()
	err := s.withOwnedRow(ctx, owner, id, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`DELETE FROM orders WHERE id = ? AND owner = ?`), id, owner)
		return err
	})
	s.logWrite(ctx, "order.delete", owner, id, start, err)
	return err
}

// SumCompletedBudget totals the budgets of owner's Completed orders whose
// deadline falls in the month of at.
func (s *Store) SumCompletedBudget(ctx context.Context, owner int64, at time.Time) (decimal.Decimal, error) {
	return s.sum(ctx,
		`SELECT COALESCE(SUM(budget_cents), 0) FROM orders WHERE owner = ? AND status = ? AND deadline LIKE ?`,
		owner, string(StatusCompleted), monthPattern(at))
}

// SumCompletedBudgetAll is SumCompletedBudget across every owner.
func (s *Store) SumCompletedBudgetAll(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	return s.sum(ctx,
		`SELECT COALESCE(SUM(budget_cents), 0) FROM orders WHERE status = ? AND deadline LIKE ?`,
		string(StatusCompleted), monthPattern(at))
}

func monthPattern(at time.Time) string {
	return at.Format("2006-01") + "-%"
}

func (s *Store) sum(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var cents int64
	if err := s.db.GetContext(ctx, &cents, s.db.Rebind(query), args...); err != nil {
		return decimal.Zero, fmt.Errorf("sum budgets: %w", err)
	}
	return fromCents(cents), nil
}

func (s *Store) selectOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	out := make([]Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.order())
	}
	return out, nil
}

// withOwnedRow runs fn in a transaction after locking the row and checking
// that it belongs to owner. Missing and foreign rows both yield ErrNotFound.
func (s *Store) withOwnedRow(ctx context.Context, owner, id int64, fn func(context.Context, *sqlx.Tx) error) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT owner FROM orders WHERE id = ?`
	if s.postgres {
		query += ` FOR UPDATE`
	}
	var rowOwner int64
	err = tx.GetContext(ctx, &rowOwner, tx.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && rowOwner != owner) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock order: %w", err)
	}
	if err := fn(ctx, tx); err != nil {
		return fmt.Errorf("mutate order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) logWrite(ctx context.Context, event string, owner, id int64, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Int64("owner", owner),
		slog.Int64("order_id", id),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Info(ctx, component, event, append(attrs, slog.String("reason", "not_found"))...)
			return
		}
		logger.Error(ctx, component, event, append(attrs, slog.String("err", err.Error()))...)
		return
	}
	logger.Debug(ctx, component, event, attrs...)
}
