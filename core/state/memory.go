package state

import (
	"context"
	"sync"
	"time"
)

// Store is an in-memory session store partitioned by chat id.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	idle     time.Duration
	now      func() time.Time

	locks chatLocks
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs a store whose sessions expire after idle without input.
// A zero idle disables expiry.
func NewStore(idle time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[int64]*Session),
		idle:     idle,
		now:      time.Now,
		locks:    chatLocks{held: make(map[int64]*chatLock)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lookup returns the live session for chatID, evicting it when expired. Caller holds mu.
func (s *Store) lookup(chatID int64) (*Session, bool) {
	sess, ok := s.sessions[chatID]
	if !ok {
		return nil, false
	}
	if s.expired(sess) {
		delete(s.sessions, chatID)
		return nil, false
	}
	return sess, true
}

func (s *Store) expired(sess *Session) bool {
	return s.idle > 0 && s.now().Sub(sess.UpdatedAt) > s.idle
}

// Get returns a copy of the chat's session.
func (s *Store) Get(chatID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.lookup(chatID)
	if !ok {
		return Session{ChatID: chatID, State: StateIdle}, false
	}
	return sess.clone(), true
}

// InProgress reports whether the chat has an active, unexpired dialog.
func (s *Store) InProgress(chatID int64) bool {
	sess, ok := s.Get(chatID)
	return ok && sess.Active()
}

// Begin starts a fresh session for dialog at the given first state. Any previous
// session of the chat is replaced and returned so the caller can report it.
func (s *Store) Begin(chatID int64, dialog string, first State) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, replaced := s.lookup(chatID)
	var out Session
	if replaced {
		out = prev.clone()
	}
	s.sessions[chatID] = &Session{
		ChatID:    chatID,
		Dialog:    dialog,
		State:     first,
		Fields:    make(map[string]any),
		UpdatedAt: s.now(),
	}
	return out, replaced
}

// Advance stores value under field and moves the session to next.
// It reports false when the chat has no live session.
func (s *Store) Advance(chatID int64, next State, field string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.lookup(chatID)
	if !ok {
		return false
	}
	if field != "" {
		sess.Fields[field] = value
	}
	sess.State = next
	sess.UpdatedAt = s.now()
	return true
}

// Touch refreshes the idle timer without changing the session.
func (s *Store) Touch(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.lookup(chatID); ok {
		sess.UpdatedAt = s.now()
	}
}

// Clear removes the chat's session and reports whether one existed.
func (s *Store) Clear(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(chatID)
	delete(s.sessions, chatID)
	return ok
}

// Len returns the number of stored sessions, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops every expired session and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 || s.idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

// Lock serializes work for one chat and returns the matching unlock.
// Different chats never contend with each other.
func (s *Store) Lock(chatID int64) func() {
	return s.locks.lock(chatID)
}
