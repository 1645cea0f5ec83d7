package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/orderbot/core/telegram/format"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/internal/chat"
	"github.com/m3rciful/orderbot/internal/dialog"
	"github.com/m3rciful/orderbot/internal/orders"
	"github.com/m3rciful/orderbot/internal/profit"
)

// Dialog names double as the tokens of the menu buttons that start them.
const (
	DialogAddOrder     = "add_order"
	DialogDeleteOrder  = "delete_order"
	DialogFilterOrders = "filter_orders"
	DialogUpdateStatus = "update_status"
	DialogSearchOrders = "search_orders"
)

const (
	fieldClient   = "client_name"
	fieldBudget   = "budget"
	fieldDeadline = "deadline"
	fieldOrderID  = "order_id"
	fieldStatus   = "status"
	fieldQuery    = "query"
)

var (
	errEmptyText = errors.New("empty text")
	errOrderID   = errors.New("invalid order id")
)

const msgNotFound = "❌ Order not found or not yours to modify."

func (a *App) definitions() []dialog.Definition {
	return []dialog.Definition{
		{
			Name:  DialogAddOrder,
			Title: "new order",
			Steps: []dialog.Step{
				{
					State:   "client_name",
					Field:   fieldClient,
					Prompt:  "👤 Enter the Client Name:",
					Invalid: "Client name cannot be empty.",
					Parse:   parseNonEmpty,
				},
				{
					State:   "budget",
					Field:   fieldBudget,
					Prompt:  "💰 Enter the Budget (e.g., 100 or 25.50):",
					Invalid: "Budget must be a non-negative number.",
					Parse:   parseBudget,
				},
				{
					State:   "deadline",
					Field:   fieldDeadline,
					Prompt:  "📅 Enter the Deadline (YYYY-MM-DD):",
					Invalid: "Deadline must be a date such as 2025-01-31.",
					Parse:   parseDeadline,
				},
			},
			Commit: a.commitAdd,
		},
		{
			Name:  DialogDeleteOrder,
			Title: "order deletion",
			Steps: []dialog.Step{
				{
					State:   "order_id",
					Field:   fieldOrderID,
					Prompt:  "🗑 Enter the Order ID to delete:",
					Invalid: "Order ID must be a positive whole number.",
					Parse:   parseOrderID,
				},
			},
			Commit: a.commitDelete,
		},
		{
			Name:  DialogFilterOrders,
			Title: "filter",
			Steps: []dialog.Step{
				{
					State:   "select_status",
					Field:   fieldStatus,
					Prompt:  "🔎 Choose a status to filter by:",
					Input:   dialog.ButtonInput,
					Options: statusOptions(),
					Parse:   parseStatus,
				},
			},
			Commit: a.commitFilter,
		},
		{
			Name:  DialogUpdateStatus,
			Title: "status update",
			Steps: []dialog.Step{
				{
					State:   "order_id",
					Field:   fieldOrderID,
					Prompt:  "✏️ Enter the Order ID to update:",
					Invalid: "Order ID must be a positive whole number.",
					Parse:   parseOrderID,
				},
				{
					State:   "select_status",
					Field:   fieldStatus,
					Prompt:  "Choose the new status:",
					Input:   dialog.ButtonInput,
					Options: statusOptions(),
					Parse:   parseStatus,
				},
			},
			Commit: a.commitUpdate,
		},
		{
			Name:  DialogSearchOrders,
			Title: "search",
			Steps: []dialog.Step{
				{
					State:   "query",
					Field:   fieldQuery,
					Prompt:  "🔍 Enter part of the client name:",
					Invalid: "Search text cannot be empty.",
					Parse:   parseNonEmpty,
				},
			},
			Commit: a.commitSearch,
		},
	}
}

func statusOptions() []dialog.Option {
	opts := make([]dialog.Option, 0, len(orders.Statuses))
	for _, st := range orders.Statuses {
		opts = append(opts, dialog.Option{Label: st.Label(), Value: string(st)})
	}
	return opts
}

func parseNonEmpty(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errEmptyText
	}
	return s, nil
}

func parseBudget(raw string) (any, error) {
	v, err := profit.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := orders.ValidateBudget(v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseDeadline(raw string) (any, error) {
	d, ok := tghelpers.NormalizeDate(raw)
	if !ok {
		return nil, fmt.Errorf("unparseable date %q", raw)
	}
	return d, nil
}

func parseOrderID(raw string) (any, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return nil, errOrderID
	}
	return id, nil
}

func parseStatus(raw string) (any, error) {
	return orders.ParseStatus(raw)
}

func (a *App) commitAdd(ctx context.Context, chatID int64, f dialog.Fields) ([]chat.Response, error) {
	budget, _ := dialog.Get[decimal.Decimal](f, fieldBudget)
	client := f.String(fieldClient)
	deadline := f.String(fieldDeadline)

	id, err := a.store.Create(ctx, chatID, client, budget, deadline)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("✅ *Order #%d added:* %s, %s, due %s.",
		id, format.MD(client), format.MD(format.Money(budget)), deadline)
	return chat.One(chat.ReplyMarkdown(text, orderButton(id), menuButton())), nil
}

func (a *App) commitDelete(ctx context.Context, chatID int64, f dialog.Fields) ([]chat.Response, error) {
	id := f.Int64(fieldOrderID)
	if err := a.store.Delete(ctx, chatID, id); err != nil {
		return nil, err
	}
	return chat.One(chat.Reply(fmt.Sprintf("🗑 Order #%d deleted.", id), menuButton())), nil
}

func (a *App) commitFilter(ctx context.Context, chatID int64, f dialog.Fields) ([]chat.Response, error) {
	st, _ := dialog.Get[orders.Status](f, fieldStatus)
	list, err := a.store.Filter(ctx, chatID, st)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("📋 *%s orders:*", st.Label())
	empty := fmt.Sprintf("📭 No %s orders.", st.Label())
	return chat.One(renderOrders(title, empty, list)), nil
}

func (a *App) commitUpdate(ctx context.Context, chatID int64, f dialog.Fields) ([]chat.Response, error) {
	id := f.Int64(fieldOrderID)
	st, _ := dialog.Get[orders.Status](f, fieldStatus)
	if err := a.store.UpdateStatus(ctx, chatID, id, st); err != nil {
		return nil, err
	}
	return chat.One(chat.Reply(fmt.Sprintf("✅ Order #%d is now %s.", id, st.Label()), orderButton(id), menuButton())), nil
}

func (a *App) commitSearch(ctx context.Context, chatID int64, f dialog.Fields) ([]chat.Response, error) {
	return a.search(ctx, chatID, f.String(fieldQuery))
}

// commitFailure maps store errors to what the user sees when a dialog ends badly.
func commitFailure(err error) string {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		return msgNotFound
	case errors.Is(err, orders.ErrInvalidBudget):
		return "❌ Budget is out of range."
	case errors.Is(err, orders.ErrEmptyClient):
		return "❌ Client name cannot be empty."
	default:
		return dialog.MsgCommitFailed
	}
}
