package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/orderbot/core/health"
	"github.com/m3rciful/orderbot/core/logger"
	coretelegram "github.com/m3rciful/orderbot/core/telegram"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/keyboard"
	tgrouter "github.com/m3rciful/orderbot/core/telegram/router"
	"github.com/m3rciful/orderbot/internal/chat"
	"github.com/m3rciful/orderbot/internal/config"

	tele "gopkg.in/telebot.v4"
)

const msgRateLimited = "⏳ Too many requests. Please slow down."

// command is one entry of the Telegram command menu.
type command struct {
	name        string
	description string
	adminOnly   bool
	hidden      bool
}

var telegramCommands = []command{
	{name: "/start", description: "Welcome and main menu", hidden: true},
	{name: "/menu", description: "Main menu"},
	{name: "/help", description: "How to use the bot"},
	{name: "/add", description: "Add an order"},
	{name: "/list", description: "List your orders"},
	{name: "/filter", description: "Filter orders by status"},
	{name: "/status", description: "Change an order status"},
	{name: "/delete", description: "Delete an order"},
	{name: "/search", description: "Find orders by client name"},
	{name: "/month", description: "Completed budget this month"},
	{name: "/export", description: "Download orders as a spreadsheet"},
	{name: "/analyze", description: "Analyze a seller profile"},
	{name: "/cancel", description: "Stop the current step"},
	{name: "/stats", description: "Totals across all users", adminOnly: true},
}

// Telegram adapts an App to the Telegram runtime.
type Telegram struct {
	app *App
	cfg *config.Config
	// Close releases the resources opened by bootstrap.
	Close func() error
}

// NewTelegram binds app to the configured Telegram bot.
func NewTelegram(app *App, cfg *config.Config) *Telegram {
	return &Telegram{app: app, cfg: cfg}
}

// Registry builds the command registry pointing every command at the bridge.
func (t *Telegram) Registry() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	for _, c := range telegramCommands {
		reg.RegisterCommand(c.name, coretelegram.Command{
			Handler:     t.handle,
			Description: c.description,
			AdminOnly:   c.adminOnly,
			Hidden:      c.hidden,
		})
	}
	reg.SetCallbackHandler(t.handle)
	reg.SetTextFallback(t.handle)
	return reg
}

// TelegramRunOptions implements the runner contract.
func (t *Telegram) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := t.cfg.CoreConfig()
	reg := t.Registry()

	routes := tgrouter.CommandRoutes(reg, tgrouter.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error { return tghelpers.SendPlain(c, msgAdminOnly) },
	})
	routes = append(routes, tgrouter.CallbackRoute(reg))
	routes = append(routes, tgrouter.TextRoutes(reg, tgrouter.TextOptions{})...)

	var stopBackground context.CancelFunc
	done := make(chan struct{})

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Routes:      routes,
		Middlewares: coretelegram.DefaultMiddlewares(core, func(c tele.Context) error { return tghelpers.SendPlain(c, msgRateLimited) }),
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
			stopBackground = cancel
			go t.runBackground(bg, done)
			return nil
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			if stopBackground != nil {
				stopBackground()
				select {
				case <-done:
				case <-ctx.Done():
				}
			}
			if t.Close != nil {
				return t.Close()
			}
			return nil
		},
	}, nil
}

// runBackground runs the session sweeper and the optional health server
// until ctx is cancelled.
func (t *Telegram) runBackground(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	core := t.cfg.CoreConfig()

	healthDone := make(chan struct{})
	if addr := core.Health.Listen; addr != "" {
		go func() {
			defer close(healthDone)
			h := health.NewRouter(t.app.store.Ping)
			if err := health.Serve(ctx, addr, h); err != nil {
				logger.Error(ctx, "health", "serve",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
		}()
	} else {
		close(healthDone)
	}

	t.app.Sessions().Run(ctx, core.Session.SweepInterval, func(removed int) {
		logger.Debug(ctx, "app", "session.sweep",
			slog.String("status", "ok"),
			slog.Int("removed", removed),
		)
	})
	<-healthDone
}

// handle converts the update into a chat event, dispatches it and sends the
// responses in order.
func (t *Telegram) handle(c tele.Context) error {
	ev, ok := eventFrom(c)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return send(c, t.app.Dispatch(ctx, ev))
}

func eventFrom(c tele.Context) (chat.Event, bool) {
	_, chatID, userID := tghelpers.IDs(c)
	if chatID == 0 {
		return chat.Event{}, false
	}

	var ev chat.Event
	switch {
	case c.Callback() != nil:
		ev = chat.ButtonEvent(chatID, tghelpers.CallbackToken(c))
	case strings.HasPrefix(c.Text(), "/"):
		fields := strings.Fields(c.Text())
		ev = chat.CommandEvent(chatID, fields[0], fields[1:]...)
	case c.Message() != nil:
		ev = chat.TextEvent(chatID, c.Text())
	default:
		return chat.Event{}, false
	}
	ev.UserID = userID
	return ev, true
}

func send(c tele.Context, out []chat.Response) error {
	var errs []error
	for _, r := range out {
		if err := sendOne(c, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sendOne(c tele.Context, r chat.Response) error {
	if d := r.Document; d != nil {
		return tghelpers.SendDocument(c, d.FileName, d.MIME, d.Caption, d.Data)
	}
	if r.Text == "" {
		return nil
	}
	buttons := make([]keyboard.Button, 0, len(r.Buttons))
	for _, b := range r.Buttons {
		buttons = append(buttons, keyboard.Button{Text: b.Label, Data: b.Token})
	}
	markup := keyboard.InlineNPerRow(buttons, r.Columns)
	if r.Format == chat.Markdown {
		return tghelpers.SendMD(c, r.Text, markup)
	}
	return tghelpers.SendPlain(c, r.Text, markup)
}
