// Package dialog drives multi-step input workflows. A workflow is a static
// table of steps; the machine keeps per-chat progress in the session store
// and runs the workflow's commit action once the last step is answered.
package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/orderbot/core/state"
	"github.com/m3rciful/orderbot/internal/chat"
)

// InputKind says how a step expects its answer.
type InputKind int

const (
	// TextInput steps accept a free-text message.
	TextInput InputKind = iota
	// ButtonInput steps accept only a press of one of their option buttons.
	ButtonInput
)

// Option is one choice of a ButtonInput step.
type Option struct {
	Label string
	Value string
}

// Step is one question of a workflow.
type Step struct {
	State  state.State
	Field  string
	Prompt string
	Input  InputKind
	// Options are rendered as buttons for ButtonInput steps.
	Options []Option
	// Invalid is shown above the repeated prompt when Parse rejects the input.
	Invalid string
	// Parse validates raw input and returns the value bound to Field.
	// A nil Parse stores the trimmed text as is.
	Parse func(raw string) (any, error)
}

// CommitFunc persists the collected fields and returns the confirmation.
type CommitFunc func(ctx context.Context, chatID int64, f Fields) ([]chat.Response, error)

// Definition describes a workflow. Name doubles as the button token that starts it.
type Definition struct {
	Name   string
	Title  string
	Steps  []Step
	Commit CommitFunc
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return errors.New("dialog: empty name")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("dialog %s: no steps", d.Name)
	}
	if d.Commit == nil {
		return fmt.Errorf("dialog %s: nil commit", d.Name)
	}
	seen := make(map[state.State]struct{}, len(d.Steps))
	for i, st := range d.Steps {
		if st.State == "" || st.State == state.StateIdle {
			return fmt.Errorf("dialog %s: step %d has reserved or empty state", d.Name, i)
		}
		if _, dup := seen[st.State]; dup {
			return fmt.Errorf("dialog %s: duplicate state %q", d.Name, st.State)
		}
		seen[st.State] = struct{}{}
		if st.Field == "" {
			return fmt.Errorf("dialog %s: step %q has no field", d.Name, st.State)
		}
		if st.Input == ButtonInput && len(st.Options) == 0 {
			return fmt.Errorf("dialog %s: button step %q has no options", d.Name, st.State)
		}
	}
	if d.Title == "" {
		d.Title = d.Name
	}
	return nil
}

func (d *Definition) index(s state.State) int {
	for i, st := range d.Steps {
		if st.State == s {
			return i
		}
	}
	return -1
}

func (st Step) parse(raw string) (any, error) {
	if st.Parse == nil {
		return raw, nil
	}
	return st.Parse(raw)
}
