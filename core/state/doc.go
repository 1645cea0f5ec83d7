// Package state keeps per-chat conversation scratch state in memory.
// Sessions are keyed strictly by chat id, expire after an idle timeout,
// and never survive a process restart.
package state
