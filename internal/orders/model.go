package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the order does not exist or belongs to another owner.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidBudget is returned for negative or out of range budgets.
	ErrInvalidBudget = errors.New("budget must be a non-negative amount")
	// ErrInvalidStatus is returned for unknown status values.
	ErrInvalidStatus = errors.New("unknown order status")
	// ErrEmptyClient is returned when the client name is blank.
	ErrEmptyClient = errors.New("client name must not be empty")
)

// Status is the lifecycle stage of an order.
type Status string

const (
	StatusActive     Status = "Active"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusActive, StatusInProgress, StatusCompleted}

// ParseStatus accepts the canonical names case-insensitively, with or without
// a space or underscore between words.
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	for _, st := range Statuses {
		if strings.ToLower(string(st)) == key {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Label is the human readable status.
func (s Status) Label() string {
	if s == StatusInProgress {
		return "In Progress"
	}
	return string(s)
}

// Order is one tracked unit of work.
type Order struct {
	ID         int64
	Owner      int64
	ClientName string
	Budget     decimal.Decimal
	Deadline   string
	Status     Status
}

// maxBudgetCents keeps budgets well inside int64 and float-free arithmetic.
const maxBudgetCents = int64(1e15)

// ValidateBudget reports ErrInvalidBudget for amounts the store cannot hold.
func ValidateBudget(budget decimal.Decimal) error {
	_, err := toCents(budget)
	return err
}

// toCents rounds budget to whole cents.
func toCents(budget decimal.Decimal) (int64, error) {
	if budget.IsNegative() {
		return 0, ErrInvalidBudget
	}
	cents := budget.Shift(2).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(maxBudgetCents)) {
		return 0, ErrInvalidBudget
	}
	return cents.IntPart(), nil
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
