package dialog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/orderbot/core/state"
	"github.com/m3rciful/orderbot/internal/chat"
)

type commitCall struct {
	chatID int64
	fields Fields
}

func newMachine(t *testing.T, commitErr error) (*Machine, *state.Store, *[]commitCall) {
	t.Helper()
	sessions := state.NewStore(time.Minute)
	m := New(sessions, WithFailureMessage(func(err error) string { return "failed: " + err.Error() }))
	var calls []commitCall
	commit := func(_ context.Context, chatID int64, f Fields) ([]chat.Response, error) {
		calls = append(calls, commitCall{chatID: chatID, fields: f})
		if commitErr != nil {
			return nil, commitErr
		}
		return chat.One(chat.Reply("saved")), nil
	}
	if err := m.Register(Definition{
		Name:  "add",
		Title: "Add",
		Steps: []Step{
			{State: "name", Field: "name", Prompt: "Name?"},
			{
				State:   "qty",
				Field:   "qty",
				Prompt:  "Qty?",
				Invalid: "Qty must be a number.",
				Parse: func(raw string) (any, error) {
					return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
				},
			},
		},
		Commit: commit,
	}); err != nil {
		t.Fatalf("register add: %v", err)
	}
	if err := m.Register(Definition{
		Name: "pick",
		Steps: []Step{{
			State:   "color",
			Field:   "color",
			Prompt:  "Color?",
			Input:   ButtonInput,
			Options: []Option{{Label: "Red", Value: "red"}, {Label: "Blue", Value: "blue"}},
		}},
		Commit: commit,
	}); err != nil {
		t.Fatalf("register pick: %v", err)
	}
	return m, sessions, &calls
}

func lastText(t *testing.T, out []chat.Response) string {
	t.Helper()
	if len(out) == 0 {
		t.Fatal("expected at least one response")
	}
	return out[len(out)-1].Text
}

func TestTextDialogHappyPath(t *testing.T) {
	m, sessions, calls := newMachine(t, nil)
	ctx := context.Background()

	out := m.Start(ctx, 1, "add")
	if lastText(t, out) != "Name?" {
		t.Fatalf("first prompt = %q", lastText(t, out))
	}
	btns := out[0].Buttons
	if len(btns) != 1 || btns[0].Token != CancelToken {
		t.Fatalf("prompt must carry only the cancel button, got %+v", btns)
	}

	out, handled := m.HandleText(ctx, 1, "Acme")
	if !handled || lastText(t, out) != "Qty?" {
		t.Fatalf("second prompt = %q handled=%v", lastText(t, out), handled)
	}

	out, _ = m.HandleText(ctx, 1, "12")
	if lastText(t, out) != "saved" {
		t.Fatalf("commit reply = %q", lastText(t, out))
	}
	if len(*calls) != 1 {
		t.Fatalf("commit called %d times", len(*calls))
	}
	got := (*calls)[0]
	if got.chatID != 1 || got.fields.String("name") != "Acme" || got.fields.Int64("qty") != 12 {
		t.Fatalf("unexpected commit %+v", got)
	}
	if sessions.InProgress(1) {
		t.Fatal("session not cleared after commit")
	}
}

func TestInvalidInputRepromptsWithoutAdvancing(t *testing.T) {
	m, sessions, calls := newMachine(t, nil)
	ctx := context.Background()
	m.Start(ctx, 1, "add")
	m.HandleText(ctx, 1, "Acme")

	out, _ := m.HandleText(ctx, 1, "many")
	text := lastText(t, out)
	if !strings.Contains(text, "Qty must be a number.") || !strings.HasSuffix(text, "Qty?") {
		t.Fatalf("unexpected reprompt %q", text)
	}
	sess, _ := sessions.Get(1)
	if sess.State != "qty" {
		t.Fatalf("state advanced to %q", sess.State)
	}
	if _, stored := sess.Fields["qty"]; stored {
		t.Fatal("invalid input was stored")
	}
	if len(*calls) != 0 {
		t.Fatal("commit ran on invalid input")
	}
}

func TestCommitFailureClearsSession(t *testing.T) {
	m, sessions, _ := newMachine(t, errors.New("boom"))
	ctx := context.Background()
	m.Start(ctx, 1, "add")
	m.HandleText(ctx, 1, "Acme")
	out, _ := m.HandleText(ctx, 1, "3")
	if lastText(t, out) != "failed: boom" {
		t.Fatalf("failure reply = %q", lastText(t, out))
	}
	if sessions.InProgress(1) {
		t.Fatal("session must be cleared after a failed commit")
	}
}

func TestRestartCancelsPrevious(t *testing.T) {
	m, sessions, _ := newMachine(t, nil)
	ctx := context.Background()
	m.Start(ctx, 1, "add")
	m.HandleText(ctx, 1, "Acme")

	out := m.Start(ctx, 1, "pick")
	if len(out) != 2 {
		t.Fatalf("expected notice and prompt, got %d responses", len(out))
	}
	if out[0].Text != "Your unfinished Add was cancelled." {
		t.Fatalf("notice = %q", out[0].Text)
	}
	sess, _ := sessions.Get(1)
	if sess.Dialog != "pick" || len(sess.Fields) != 0 {
		t.Fatalf("session not restarted: %+v", sess)
	}

	if out := m.Start(ctx, 2, "add"); len(out) != 1 {
		t.Fatalf("fresh start must not carry a notice, got %d responses", len(out))
	}
}

func TestCancel(t *testing.T) {
	m, sessions, _ := newMachine(t, nil)
	ctx := context.Background()
	if lastText(t, m.Cancel(ctx, 1)) != MsgNothingCancel {
		t.Fatal("cancel without dialog must say nothing to cancel")
	}
	m.Start(ctx, 1, "add")
	if lastText(t, m.Cancel(ctx, 1)) != MsgCancelled {
		t.Fatal("cancel must confirm")
	}
	if sessions.InProgress(1) {
		t.Fatal("session survived cancel")
	}
	if _, handled := m.HandleText(ctx, 1, "Acme"); handled {
		t.Fatal("text after cancel must not be handled by the machine")
	}
}

func TestButtonStep(t *testing.T) {
	m, sessions, calls := newMachine(t, nil)
	ctx := context.Background()
	out := m.Start(ctx, 1, "pick")
	btns := out[0].Buttons
	if len(btns) != 3 || btns[0].Label != "Red" || btns[2].Token != CancelToken {
		t.Fatalf("unexpected buttons %+v", btns)
	}

	out, handled := m.HandleText(ctx, 1, "red")
	if !handled || !strings.HasPrefix(lastText(t, out), "⚠️ "+MsgChooseButton) {
		t.Fatalf("text on button step = %q", lastText(t, out))
	}

	if lastText(t, m.HandleButton(ctx, 1, OptionToken("pick", "color", "green"))) != MsgButtonExpired {
		t.Fatal("unknown option must be rejected")
	}
	if lastText(t, m.HandleButton(ctx, 1, OptionToken("add", "qty", "red"))) != MsgButtonExpired {
		t.Fatal("button of another dialog must be rejected")
	}
	if lastText(t, m.HandleButton(ctx, 2, btns[1].Token)) != MsgButtonExpired {
		t.Fatal("button pressed in a chat without session must be rejected")
	}
	if !sessions.InProgress(1) {
		t.Fatal("stale presses must not touch the session")
	}

	out = m.HandleButton(ctx, 1, btns[1].Token)
	if lastText(t, out) != "saved" || (*calls)[0].fields.String("color") != "blue" {
		t.Fatalf("button commit failed: %q %+v", lastText(t, out), *calls)
	}
}

func TestChatsAreIsolated(t *testing.T) {
	m, sessions, calls := newMachine(t, nil)
	ctx := context.Background()
	m.Start(ctx, 1, "add")
	m.Start(ctx, 2, "add")
	m.HandleText(ctx, 1, "One")
	m.HandleText(ctx, 2, "Two")
	m.HandleText(ctx, 2, "2")
	if len(*calls) != 1 || (*calls)[0].chatID != 2 || (*calls)[0].fields.String("name") != "Two" {
		t.Fatalf("unexpected commits %+v", *calls)
	}
	sess, _ := sessions.Get(1)
	if sess.State != "qty" || sess.Fields["name"] != "One" {
		t.Fatalf("chat 1 session disturbed: %+v", sess)
	}
}

func TestRegisterValidation(t *testing.T) {
	m := New(state.NewStore(0))
	noop := func(context.Context, int64, Fields) ([]chat.Response, error) { return nil, nil }
	bad := []Definition{
		{Name: "", Steps: []Step{{State: "a", Field: "a"}}, Commit: noop},
		{Name: "x", Commit: noop},
		{Name: "x", Steps: []Step{{State: "a", Field: "a"}}},
		{Name: "x", Steps: []Step{{State: "a", Field: "a"}, {State: "a", Field: "b"}}, Commit: noop},
		{Name: "x", Steps: []Step{{State: state.StateIdle, Field: "a"}}, Commit: noop},
		{Name: "x", Steps: []Step{{State: "a", Field: "a", Input: ButtonInput}}, Commit: noop},
	}
	for i, def := range bad {
		if err := m.Register(def); err == nil {
			t.Errorf("definition %d registered without error", i)
		}
	}
	ok := Definition{Name: "x", Steps: []Step{{State: "a", Field: "a"}}, Commit: noop}
	if err := m.Register(ok); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(ok); err == nil {
		t.Fatal("duplicate name registered")
	}
	if names := m.Names(); len(names) != 1 || names[0] != "x" {
		t.Fatalf("names = %v", names)
	}
}
