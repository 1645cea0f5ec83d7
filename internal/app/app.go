// Package app wires the order bot: it registers dialogs and handlers on the
// event router and bridges Telegram updates to it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/orderbot/core/state"
	"github.com/m3rciful/orderbot/internal/chat"
	"github.com/m3rciful/orderbot/internal/dialog"
	"github.com/m3rciful/orderbot/internal/orders"
	"github.com/m3rciful/orderbot/internal/profile"
	"github.com/m3rciful/orderbot/internal/profit"
	"github.com/m3rciful/orderbot/internal/router"
)

// Deps are the collaborators of the bot.
type Deps struct {
	Store    *orders.Store
	Sessions *state.Store
	Profiles *profile.Client
	// Calc defaults to profit.Default.
	Calc    *profit.Calculator
	AdminID int64
	// Now defaults to time.Now.
	Now func() time.Time
}

// App is the assembled bot.
type App struct {
	store    *orders.Store
	sessions *state.Store
	profiles *profile.Client
	calc     profit.Calculator
	adminID  int64
	now      func() time.Time

	dialogs *dialog.Machine
	router  *router.Router
}

// New assembles the bot from deps.
func New(deps Deps) (*App, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("app: nil order store")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("app: nil session store")
	}
	if deps.Profiles == nil {
		deps.Profiles = profile.NewClient(profile.Config{}, nil)
	}
	calc := profit.Default()
	if deps.Calc != nil {
		calc = *deps.Calc
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	a := &App{
		store:    deps.Store,
		sessions: deps.Sessions,
		profiles: deps.Profiles,
		calc:     calc,
		adminID:  deps.AdminID,
		now:      deps.Now,
	}
	a.dialogs = dialog.New(deps.Sessions, dialog.WithFailureMessage(commitFailure))
	for _, def := range a.definitions() {
		if err := a.dialogs.Register(def); err != nil {
			return nil, err
		}
	}
	a.router = a.buildRouter()
	return a, nil
}

// Dispatch routes one event. It is the single entry point of the bot logic.
func (a *App) Dispatch(ctx context.Context, ev chat.Event) []chat.Response {
	return a.router.Dispatch(ctx, ev)
}

// Sessions exposes the session store for the idle sweeper.
func (a *App) Sessions() *state.Store {
	return a.sessions
}

func (a *App) buildRouter() *router.Router {
	r := router.New(a.dialogs, a.sessions)

	r.Command("start", a.handleStart)
	r.Command("menu", a.handleMenu)
	r.Command("help", a.handleHelp)
	r.Command("list", a.handleList)
	r.Command("search", a.handleSearch)
	r.Command("month", a.handleMonth)
	r.Command("export", a.handleExport)
	r.Command("analyze", a.handleAnalyze)
	r.Command("stats", a.handleStats)
	r.Command("cancel", a.handleCancel)
	r.Command("add", a.startDialog(DialogAddOrder))
	r.Command("delete", a.startDialog(DialogDeleteOrder))
	r.Command("filter", a.startDialog(DialogFilterOrders))
	r.Command("status", a.startDialog(DialogUpdateStatus))

	// Option buttons first: their tokens are the most specific.
	r.Button(dialog.Namespace+"|", a.handleDialogButton)
	r.Button(dialog.CancelToken, a.handleCancel)
	r.Button(TokenOrder+"|", a.handleOrder)
	for _, name := range a.dialogs.Names() {
		r.Button(name, a.startDialog(name))
	}
	r.Button(TokenList, a.handleList)
	r.Button(TokenMonth, a.handleMonth)
	r.Button(TokenExport, a.handleExport)
	r.Button(TokenMenu, a.handleMenu)

	r.Fallback(a.handleAmount)
	return r
}
