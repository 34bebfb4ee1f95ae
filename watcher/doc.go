// Package watcher runs the auto-attach discovery loop.
//
// A Watcher owns at most one Session at a time. Start creates a session for a
// root process and arms a fixed-period ticker; each tick launches a discovery
// pass:
//
//	enumerate processes -> update tracked tree -> filter -> probe port -> attach
//
// Passes are not serialized: a slow process enumeration does not delay the
// next tick, so several passes may be in flight at once. The session's
// tracker only grows and hands out each pid exactly once, which keeps
// overlapping passes from attaching twice. Stop cancels the session context;
// results from passes still in flight are discarded.
//
// Enumeration runs behind a circuit breaker. After repeated failures the
// breaker opens and ticks are skipped until it half-opens again. A failed or
// skipped enumeration never removes pids from the tracked set.
package watcher
