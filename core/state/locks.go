package state

import "sync"

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// chatLocks hands out one mutex per chat and forgets it once nobody holds or waits on it.
type chatLocks struct {
	mu   sync.Mutex
	held map[int64]*chatLock
}

func (l *chatLocks) lock(chatID int64) func() {
	l.mu.Lock()
	cl, ok := l.held[chatID]
	if !ok {
		cl = &chatLock{}
		l.held[chatID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			cl.mu.Unlock()
			l.mu.Lock()
			cl.refs--
			if cl.refs == 0 {
				delete(l.held, chatID)
			}
			l.mu.Unlock()
		})
	}
}
