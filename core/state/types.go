package state

import (
	"maps"
	"time"
)

// State names a step of a dialog.
type State string

// StateIdle indicates there is no active conversation in the chat.
const StateIdle State = "idle"

// Session is the scratch space of one chat: which dialog owns it, the current
// step, and the validated values collected so far.
type Session struct {
	ChatID    int64
	Dialog    string
	State     State
	Fields    map[string]any
	UpdatedAt time.Time
}

// Active reports whether a dialog currently owns the chat.
func (s Session) Active() bool {
	return s.Dialog != "" && s.State != StateIdle
}

func (s Session) clone() Session {
	s.Fields = maps.Clone(s.Fields)
	if s.Fields == nil {
		s.Fields = make(map[string]any)
	}
	return s
}
