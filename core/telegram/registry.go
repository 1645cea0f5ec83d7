package telegram

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/orderbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Registry holds the bot commands plus the catch-all callback and text handlers.
type Registry struct {
	commands     map[string]Command
	callback     tele.HandlerFunc
	textFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// RegisterCommand adds a new command. name must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("command", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("command", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	name = strings.ToLower(name)
	if _, exists := r.commands[name]; exists {
		logger.Warn(context.Background(), "tg.wire", "register.command.duplicate",
			slog.String("command", name),
		)
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns the command menu sorted by name, optionally without hidden and admin-only entries.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(cmd, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand finds a command by name or alias and returns its canonical key.
func (r *Registry) LookupCommand(name string) (string, Command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", Command{}, false
	}
	if fields := strings.Fields(name); len(fields) > 0 {
		name = fields[0]
	}
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", Command{}, false
}

// Commands returns all registered commands keyed by their slash name.
func (r *Registry) Commands() map[string]Command {
	return r.commands
}

// SetCallbackHandler sets the handler that receives every button press.
func (r *Registry) SetCallbackHandler(h tele.HandlerFunc) {
	r.callback = h
}

// CallbackHandler returns the button handler, nil when unset.
func (r *Registry) CallbackHandler() tele.HandlerFunc {
	return r.callback
}

// SetTextFallback sets the handler for text that is not a registered command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands publishes the visible commands to the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	commands := reg.ListCommands(true)
	if err := bot.SetCommands(commands); err != nil {
		logger.Error(context.Background(), "tg.wire", "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Info(context.Background(), "tg.wire", "register.commands.set",
		slog.String("status", "ok"),
		slog.Int("count", len(commands)),
	)
}
