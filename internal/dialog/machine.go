package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/state"
	"github.com/m3rciful/orderbot/core/telegram/callbacks"
	"github.com/m3rciful/orderbot/internal/chat"
)

const component = "dialog"

const (
	// Namespace prefixes the tokens of option buttons.
	Namespace = "dlg"
	// CancelToken is the token of the cancel button attached to every prompt.
	CancelToken = "cancel"
	// CancelLabel is the label of that button.
	CancelLabel = "❌ Cancel"
)

// User facing notices.
const (
	MsgCancelled      = "Cancelled."
	MsgNothingCancel  = "Nothing to cancel."
	MsgChooseButton   = "Please choose one of the buttons."
	MsgButtonExpired  = "This button has expired."
	MsgCommitFailed   = "Something went wrong. Please try again."
	msgRestartPattern = "Your unfinished %s was cancelled."
)

// Machine runs registered workflows on top of a session store.
type Machine struct {
	sessions *state.Store
	defs     map[string]*Definition
	failure  func(error) string
}

// MachineOption customises a Machine.
type MachineOption func(*Machine)

// WithFailureMessage maps commit errors to the text shown to the user.
func WithFailureMessage(fn func(error) string) MachineOption {
	return func(m *Machine) {
		if fn != nil {
			m.failure = fn
		}
	}
}

// New returns a machine without workflows.
func New(sessions *state.Store, opts ...MachineOption) *Machine {
	m := &Machine{
		sessions: sessions,
		defs:     make(map[string]*Definition),
		failure:  func(error) string { return MsgCommitFailed },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a workflow. Names must be unique.
func (m *Machine) Register(def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}
	if _, dup := m.defs[def.Name]; dup {
		return fmt.Errorf("dialog %s: already registered", def.Name)
	}
	m.defs[def.Name] = &def
	return nil
}

// Names lists registered workflows in lexical order.
func (m *Machine) Names() []string {
	names := make([]string, 0, len(m.defs))
	for n := range m.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Active reports whether the chat is inside a workflow.
func (m *Machine) Active(chatID int64) bool {
	return m.sessions.InProgress(chatID)
}

// Start enters workflow name for the chat. An unfinished workflow is cancelled
// first and the user is told so.
func (m *Machine) Start(ctx context.Context, chatID int64, name string) []chat.Response {
	def, ok := m.defs[name]
	if !ok {
		logger.Warn(ctx, component, "dialog.start",
			slog.String("status", "skip"),
			slog.String("dialog", name),
			slog.String("reason", "unknown_dialog"),
		)
		return nil
	}
	first := def.Steps[0]
	prev, replaced := m.sessions.Begin(chatID, def.Name, first.State)

	var out []chat.Response
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("dialog", def.Name),
		slog.String("step", string(first.State)),
	}
	if replaced && prev.Active() {
		title := prev.Dialog
		if p, ok := m.defs[prev.Dialog]; ok {
			title = p.Title
		}
		out = append(out, chat.Reply(fmt.Sprintf(msgRestartPattern, title)))
		attrs = append(attrs, slog.String("replaced", prev.Dialog))
	}
	logger.Info(ctx, component, "dialog.start", attrs...)
	return append(out, m.prompt(def, first))
}

// Cancel leaves the current workflow, if any.
func (m *Machine) Cancel(ctx context.Context, chatID int64) []chat.Response {
	sess, _ := m.sessions.Get(chatID)
	if !m.sessions.Clear(chatID) {
		return chat.One(chat.Reply(MsgNothingCancel))
	}
	logger.Info(ctx, component, "dialog.cancel",
		slog.String("status", "ok"),
		slog.String("dialog", sess.Dialog),
		slog.String("step", string(sess.State)),
	)
	return chat.One(chat.Reply(MsgCancelled))
}

// HandleText feeds a text message to the chat's current step. handled is false
// when no workflow is active, so the caller may fall back to other behaviour.
func (m *Machine) HandleText(ctx context.Context, chatID int64, text string) (out []chat.Response, handled bool) {
	sess, ok := m.sessions.Get(chatID)
	if !ok || !sess.Active() {
		return nil, false
	}
	def, idx := m.current(sess)
	if def == nil {
		m.sessions.Clear(chatID)
		return chat.One(chat.Reply(MsgButtonExpired)), true
	}
	step := def.Steps[idx]
	if step.Input == ButtonInput {
		m.sessions.Touch(chatID)
		m.logInvalid(ctx, def, step, "text_for_button")
		return chat.One(m.reprompt(def, step, MsgChooseButton)), true
	}
	return m.accept(ctx, chatID, sess, def, idx, text), true
}

// HandleButton feeds an option button press. Presses that do not belong to the
// chat's current step are answered as expired and change nothing.
func (m *Machine) HandleButton(ctx context.Context, chatID int64, token string) []chat.Response {
	p, err := callbacks.Decode(token)
	if err != nil || p.Namespace != Namespace {
		return chat.One(chat.Reply(MsgButtonExpired))
	}
	sess, ok := m.sessions.Get(chatID)
	if !ok || !sess.Active() || sess.Dialog != p.Get("d") || string(sess.State) != p.Get("s") {
		logger.Debug(ctx, component, "dialog.button",
			slog.String("status", "skip"),
			slog.String("dialog", p.Get("d")),
			slog.String("step", p.Get("s")),
			slog.String("reason", "stale"),
		)
		return chat.One(chat.Reply(MsgButtonExpired))
	}
	def, idx := m.current(sess)
	if def == nil || def.Steps[idx].Input != ButtonInput {
		return chat.One(chat.Reply(MsgButtonExpired))
	}
	value := p.Get("v")
	if !hasOption(def.Steps[idx].Options, value) {
		return chat.One(chat.Reply(MsgButtonExpired))
	}
	return m.accept(ctx, chatID, sess, def, idx, value)
}

// OptionToken is the token of an option button.
func OptionToken(dialog string, step state.State, value string) string {
	return callbacks.New(Namespace).
		With("d", dialog).
		With("s", string(step)).
		With("v", value).
		String()
}

func (m *Machine) accept(ctx context.Context, chatID int64, sess state.Session, def *Definition, idx int, raw string) []chat.Response {
	step := def.Steps[idx]
	value, err := step.parse(raw)
	if err != nil {
		m.sessions.Touch(chatID)
		m.logInvalid(ctx, def, step, err.Error())
		msg := step.Invalid
		if msg == "" {
			msg = err.Error()
		}
		return chat.One(m.reprompt(def, step, msg))
	}

	if idx == len(def.Steps)-1 {
		fields := Fields(maps.Clone(sess.Fields))
		if fields == nil {
			fields = Fields{}
		}
		fields[step.Field] = value
		return m.commit(ctx, chatID, def, fields)
	}

	next := def.Steps[idx+1]
	if !m.sessions.Advance(chatID, next.State, step.Field, value) {
		return chat.One(chat.Reply(MsgButtonExpired))
	}
	logger.Debug(ctx, component, "dialog.step",
		slog.String("status", "ok"),
		slog.String("dialog", def.Name),
		slog.String("step", string(step.State)),
		slog.String("next", string(next.State)),
	)
	return chat.One(m.prompt(def, next))
}

func (m *Machine) commit(ctx context.Context, chatID int64, def *Definition, fields Fields) []chat.Response {
	defer m.sessions.Clear(chatID)

	start := time.Now()
	out, err := def.Commit(ctx, chatID, fields)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("dialog", def.Name),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.Warn(ctx, component, "dialog.commit", append(attrs, slog.String("err", err.Error()))...)
		return chat.One(chat.Reply(m.failure(err)))
	}
	logger.Info(ctx, component, "dialog.commit", attrs...)
	return out
}

func (m *Machine) current(sess state.Session) (*Definition, int) {
	def, ok := m.defs[sess.Dialog]
	if !ok {
		return nil, -1
	}
	idx := def.index(sess.State)
	if idx < 0 {
		return nil, -1
	}
	return def, idx
}

func (m *Machine) prompt(def *Definition, step Step) chat.Response {
	buttons := make([]chat.Button, 0, len(step.Options)+1)
	if step.Input == ButtonInput {
		for _, opt := range step.Options {
			buttons = append(buttons, chat.Button{
				Label: opt.Label,
				Token: OptionToken(def.Name, step.State, opt.Value),
			})
		}
	}
	buttons = append(buttons, chat.Button{Label: CancelLabel, Token: CancelToken})
	return chat.Reply(step.Prompt, buttons...)
}

func (m *Machine) reprompt(def *Definition, step Step, problem string) chat.Response {
	r := m.prompt(def, step)
	r.Text = "⚠️ " + problem + "\n\n" + r.Text
	return r
}

func (m *Machine) logInvalid(ctx context.Context, def *Definition, step Step, reason string) {
	logger.Debug(ctx, component, "dialog.step",
		slog.String("status", "invalid"),
		slog.String("dialog", def.Name),
		slog.String("step", string(step.State)),
		slog.String("reason", logger.SanitizeLimit(reason, 128)),
	)
}

func hasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}
