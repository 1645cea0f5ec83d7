package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/telegram/callbacks"
	"github.com/m3rciful/orderbot/core/telegram/format"
	"github.com/m3rciful/orderbot/internal/chat"
	"github.com/m3rciful/orderbot/internal/dialog"
	"github.com/m3rciful/orderbot/internal/export"
	"github.com/m3rciful/orderbot/internal/orders"
	"github.com/m3rciful/orderbot/internal/profile"
)

// Tokens of the read-only menu buttons.
const (
	TokenMenu   = "menu"
	TokenList   = "list_orders"
	TokenMonth  = "month_total"
	TokenExport = "export_orders"
	// TokenOrder is the namespace of per-order view buttons.
	TokenOrder = "order"
)

const (
	msgWelcome = "Hello! Send me an amount, and I'll calculate your Fiverr net profit after fees.\n\n" +
		"Example: If you send '100', I'll tell you how much you keep after Fiverr's fees.\n\n" +
		"Use the menu below to track your orders."
	msgHelp = "Commands:\n" +
		"/menu - main menu\n" +
		"/add - add an order\n" +
		"/list - list your orders\n" +
		"/filter - filter orders by status\n" +
		"/status - change the status of an order\n" +
		"/delete - delete an order\n" +
		"/search <text> - find orders by client name\n" +
		"/month - completed budget this month\n" +
		"/export - download your orders as a spreadsheet\n" +
		"/analyze <username> - analyze a seller profile\n" +
		"/cancel - stop the current step\n\n" +
		"Any other number is treated as an amount for the profit calculator."
	msgNoOrders      = "📭 No orders yet."
	msgSearchUsage   = "Usage: /search <client name>"
	msgAnalyzeUsage  = "Usage: /analyze <username>"
	msgAdminOnly     = "⛔ This command is for the bot admin only."
	msgExportEmpty   = "📭 No orders to export."
	msgExportCaption = "📎 Your orders"
)

func menuButton() chat.Button {
	return chat.Button{Label: "🏠 Menu", Token: TokenMenu}
}

func mainMenu() []chat.Button {
	return []chat.Button{
		{Label: "➕ Add Order", Token: DialogAddOrder},
		{Label: "📋 List Orders", Token: TokenList},
		{Label: "🔎 Filter by Status", Token: DialogFilterOrders},
		{Label: "✏️ Update Status", Token: DialogUpdateStatus},
		{Label: "🗑 Delete Order", Token: DialogDeleteOrder},
		{Label: "🔍 Search", Token: DialogSearchOrders},
		{Label: "💵 This Month", Token: TokenMonth},
		{Label: "📎 Export", Token: TokenExport},
	}
}

const menuColumns = 2

func menuReply(text string) []chat.Response {
	return chat.One(chat.Response{Text: text, Buttons: mainMenu(), Columns: menuColumns})
}

func (a *App) handleStart(context.Context, chat.Event) []chat.Response {
	return menuReply(msgWelcome)
}

func (a *App) handleMenu(context.Context, chat.Event) []chat.Response {
	return menuReply("📌 Main menu:")
}

// orderButton opens a single order. The id travels in the token.
func orderButton(id int64) chat.Button {
	return chat.Button{Label: fmt.Sprintf("🔎 Order #%d", id), Token: callbacks.New(TokenOrder).WithInt64("id", id).String()}
}

func (a *App) handleOrder(ctx context.Context, ev chat.Event) []chat.Response {
	p, err := callbacks.Decode(ev.Token)
	if err != nil || p.Namespace != TokenOrder {
		return chat.One(chat.Reply(dialog.MsgButtonExpired))
	}
	id, err := p.Int64("id")
	if err != nil {
		return chat.One(chat.Reply(dialog.MsgButtonExpired))
	}
	o, err := a.store.Get(ctx, ev.ChatID, id)
	if errors.Is(err, orders.ErrNotFound) {
		return chat.One(chat.Reply(msgNotFound, menuButton()))
	}
	if err != nil {
		return a.storeFailure(ctx, "get", err)
	}
	text := fmt.Sprintf("📄 *Order #%d*\nClient: %s\nBudget: %s\nDeadline: %s\nStatus: %s",
		o.ID, format.MD(o.ClientName), format.MD(format.Money(o.Budget)), o.Deadline, o.Status.Label())
	return chat.One(chat.ReplyMarkdown(text, menuButton()))
}

func (a *App) handleHelp(context.Context, chat.Event) []chat.Response {
	return chat.One(chat.Reply(msgHelp))
}

func (a *App) handleList(ctx context.Context, ev chat.Event) []chat.Response {
	list, err := a.store.List(ctx, ev.ChatID)
	if err != nil {
		return a.storeFailure(ctx, "list", err)
	}
	return chat.One(renderOrders("📋 *Your orders:*", msgNoOrders, list))
}

func (a *App) handleSearch(ctx context.Context, ev chat.Event) []chat.Response {
	query := strings.TrimSpace(strings.Join(ev.Args, " "))
	if query == "" {
		return chat.One(chat.Reply(msgSearchUsage))
	}
	out, err := a.search(ctx, ev.ChatID, query)
	if err != nil {
		return a.storeFailure(ctx, "search", err)
	}
	return out
}

func (a *App) search(ctx context.Context, owner int64, query string) ([]chat.Response, error) {
	list, err := a.store.Search(ctx, owner, query)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("🔍 *Orders matching* `%s`:", strings.ReplaceAll(query, "`", "'"))
	empty := fmt.Sprintf("📭 No orders match %q.", query)
	return chat.One(renderOrders(title, empty, list)), nil
}

func (a *App) handleMonth(ctx context.Context, ev chat.Event) []chat.Response {
	sum, err := a.store.SumCompletedBudget(ctx, ev.ChatID, a.now())
	if err != nil {
		return a.storeFailure(ctx, "month", err)
	}
	text := fmt.Sprintf("💵 Completed this month: *%s*", format.Money(sum))
	return chat.One(chat.ReplyMarkdown(text, menuButton()))
}

func (a *App) handleStats(ctx context.Context, ev chat.Event) []chat.Response {
	if a.adminID == 0 || ev.UserID != a.adminID {
		return chat.One(chat.Reply(msgAdminOnly))
	}
	sum, err := a.store.SumCompletedBudgetAll(ctx, a.now())
	if err != nil {
		return a.storeFailure(ctx, "stats", err)
	}
	text := fmt.Sprintf("📈 Completed this month across all users: *%s*", format.Money(sum))
	return chat.One(chat.ReplyMarkdown(text))
}

func (a *App) handleExport(ctx context.Context, ev chat.Event) []chat.Response {
	list, err := a.store.List(ctx, ev.ChatID)
	if err != nil {
		return a.storeFailure(ctx, "export", err)
	}
	if len(list) == 0 {
		return chat.One(chat.Reply(msgExportEmpty))
	}
	wb, err := export.Orders(list, a.now())
	if err != nil {
		logger.Error(ctx, "app", "export",
			slog.String("status", "fail"),
			slog.Int("orders", len(list)),
			slog.String("err", err.Error()),
		)
		return chat.One(chat.Reply(msgStoreFailure))
	}
	return chat.One(chat.Response{Document: &chat.Document{
		FileName: wb.FileName,
		MIME:     export.MIME,
		Data:     wb.Data,
		Caption:  msgExportCaption,
	}})
}

func (a *App) handleAnalyze(ctx context.Context, ev chat.Event) []chat.Response {
	if len(ev.Args) == 0 {
		return chat.One(chat.Reply(msgAnalyzeUsage))
	}
	p, err := a.profiles.Fetch(ctx, ev.Args[0])
	if errors.Is(err, profile.ErrBlocked) {
		return chat.One(chat.Reply(profile.BlockedMessage))
	}
	if err != nil {
		return chat.One(chat.Reply(profile.GenericError))
	}
	analysis, err := profile.Analyze(p)
	if err != nil {
		logger.Warn(ctx, "app", "analyze",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return chat.One(chat.Reply(profile.GenericError))
	}
	return chat.One(chat.ReplyMarkdown(analysis.Render()))
}

func (a *App) handleCancel(ctx context.Context, ev chat.Event) []chat.Response {
	return a.dialogs.Cancel(ctx, ev.ChatID)
}

func (a *App) handleDialogButton(ctx context.Context, ev chat.Event) []chat.Response {
	return a.dialogs.HandleButton(ctx, ev.ChatID, ev.Token)
}

// startDialog returns a handler entering the named dialog.
func (a *App) startDialog(name string) func(context.Context, chat.Event) []chat.Response {
	return func(ctx context.Context, ev chat.Event) []chat.Response {
		return a.dialogs.Start(ctx, ev.ChatID, name)
	}
}

// handleAmount is the free-text fallback: the profit calculator.
func (a *App) handleAmount(_ context.Context, ev chat.Event) []chat.Response {
	msg, ok := a.calc.Reply(ev.Text)
	if !ok {
		return chat.One(chat.Reply(msg))
	}
	return chat.One(chat.ReplyMarkdown(msg))
}

const msgStoreFailure = "❌ Something went wrong. Please try again later."

func (a *App) storeFailure(ctx context.Context, op string, err error) []chat.Response {
	logger.Error(ctx, "app", "store",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.String("err", err.Error()),
	)
	return chat.One(chat.Reply(msgStoreFailure))
}

// renderOrders formats list as a legacy Markdown message, or empty when there
// is nothing to show.
func renderOrders(title, empty string, list []orders.Order) chat.Response {
	if len(list) == 0 {
		return chat.Reply(empty, menuButton())
	}
	var b strings.Builder
	b.WriteString(title)
	for _, o := range list {
		fmt.Fprintf(&b, "\n#%d %s | %s | %s | %s",
			o.ID, format.MD(o.ClientName), format.MD(format.Money(o.Budget)), o.Deadline, o.Status.Label())
	}
	return chat.ReplyMarkdown(b.String(), menuButton())
}
