// Package router classifies inbound chat events and hands each one to a
// command handler, the chat's active dialog, a button handler, or the text
// fallback.
//
// Button tokens are matched against registered prefixes in registration
// order and the first match wins. Register more specific prefixes first when
// one prefix is a prefix of another.
package router

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/internal/chat"
)

const component = "router"

// HandlerFunc answers one event.
type HandlerFunc func(ctx context.Context, ev chat.Event) []chat.Response

// Dialogs is the part of the dialog machine the router needs.
type Dialogs interface {
	HandleText(ctx context.Context, chatID int64, text string) ([]chat.Response, bool)
}

// Locker serializes events of one chat.
type Locker interface {
	Lock(chatID int64) func()
}

type buttonRoute struct {
	prefix  string
	handler HandlerFunc
}

// Router dispatches events. Register everything before the first Dispatch.
type Router struct {
	commands map[string]HandlerFunc
	buttons  []buttonRoute
	dialogs  Dialogs
	fallback HandlerFunc
	locks    Locker
}

// New builds a router. dialogs and locks may be nil.
func New(dialogs Dialogs, locks Locker) *Router {
	return &Router{
		commands: make(map[string]HandlerFunc),
		dialogs:  dialogs,
		locks:    locks,
	}
}

// Command registers h for the command name, given with or without the slash.
func (r *Router) Command(name string, h HandlerFunc) {
	key := chat.NormalizeCommand(name)
	if key == "" || h == nil {
		logger.Warn(context.Background(), component, "register.command.skip",
			slog.String("command", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if _, dup := r.commands[key]; dup {
		logger.Warn(context.Background(), component, "register.command.duplicate",
			slog.String("command", key),
		)
		return
	}
	r.commands[key] = h
}

// Button registers h for tokens starting with prefix.
func (r *Router) Button(prefix string, h HandlerFunc) {
	if prefix == "" || h == nil {
		logger.Warn(context.Background(), component, "register.button.skip",
			slog.String("prefix", prefix),
			slog.String("reason", "invalid"),
		)
		return
	}
	r.buttons = append(r.buttons, buttonRoute{prefix: prefix, handler: h})
}

// Fallback sets the handler for text that no dialog claims.
func (r *Router) Fallback(h HandlerFunc) {
	r.fallback = h
}

// Commands lists the registered command names.
func (r *Router) Commands() []string {
	out := make([]string, 0, len(r.commands))
	for k := range r.commands {
		out = append(out, k)
	}
	return out
}

// Dispatch routes ev and returns the responses for its chat. Events of the
// same chat are processed one at a time in arrival order.
func (r *Router) Dispatch(ctx context.Context, ev chat.Event) []chat.Response {
	if r.locks != nil {
		unlock := r.locks.Lock(ev.ChatID)
		defer unlock()
	}

	start := time.Now()
	route, out := r.route(ctx, ev)
	status := "ok"
	if route == "" {
		status = "skip"
		route = "none"
	}
	logger.Debug(ctx, component, "dispatch",
		slog.String("status", status),
		slog.String("kind", ev.Kind.String()),
		slog.String("handler", route),
		slog.Int("messages", len(out)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out
}

func (r *Router) route(ctx context.Context, ev chat.Event) (string, []chat.Response) {
	switch ev.Kind {
	case chat.KindCommand:
		name := chat.NormalizeCommand(ev.Command)
		h, ok := r.commands[name]
		if !ok {
			return "", nil
		}
		ev.Command = name
		return "command." + name, h(ctx, ev)

	case chat.KindButton:
		for _, b := range r.buttons {
			if strings.HasPrefix(ev.Token, b.prefix) {
				return "button." + b.prefix, b.handler(ctx, ev)
			}
		}
		return "", nil

	case chat.KindText:
		if r.dialogs != nil {
			if out, handled := r.dialogs.HandleText(ctx, ev.ChatID, ev.Text); handled {
				return "dialog", out
			}
		}
		if r.fallback != nil {
			return "fallback", r.fallback(ctx, ev)
		}
		return "", nil
	}
	return "", nil
}
