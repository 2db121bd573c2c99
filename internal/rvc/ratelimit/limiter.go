// Package ratelimit implements the Rate Limiter: three simultaneous
// budgets (global, per-entity, per-entity cooldown) admitting or rejecting
// a candidate command. The test-and-update is a single critical section,
// atomic with respect to concurrent senders.
package ratelimit

import (
	"sync"
	"time"

	"github.com/nerrad567/rvcbridge/internal/rvc/validate"
)

// window is the sliding-window width every budget prunes against.
const window = 1 * time.Second

// dequeCapacity is a small fixed capacity per spec.md §9's design note:
// the per-second budgets never need more than a handful of timestamps.
const dequeCapacity = 16

// Config holds the three budgets, all configurable.
type Config struct {
	GlobalRate       int           // admitted commands per second, process-wide
	EntityRate       int           // admitted commands per second, per entity
	EntityCooldownMS time.Duration // minimum gap between admits for one entity
}

type entityState struct {
	timestamps   []time.Time
	lastAdmitted time.Time
}

// Limiter is the shared, mutex-guarded rate limiter state. A zero
// time.Time for lastAdmitted means the entity has never been admitted.
type Limiter struct {
	mu       sync.Mutex
	cfg      Config
	global   []time.Time
	entities map[string]*entityState
}

// New builds a Limiter with the given budgets.
func New(cfg Config) *Limiter {
	return &Limiter{cfg: cfg, entities: make(map[string]*entityState)}
}

// Admit runs the three-budget test and, on success, records now against
// both deques and the entity's last-admitted timestamp. All three budgets
// must pass for admission.
func (l *Limiter) Admit(entityID string, now time.Time) validate.RateResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.global = prune(l.global, now)
	st := l.entities[entityID]
	if st == nil {
		st = &entityState{}
		l.entities[entityID] = st
	}
	st.timestamps = prune(st.timestamps, now)

	if l.cfg.EntityCooldownMS > 0 && !st.lastAdmitted.IsZero() && now.Sub(st.lastAdmitted) < l.cfg.EntityCooldownMS {
		return validate.RateRejectedCooldown
	}
	if l.cfg.EntityRate > 0 && len(st.timestamps) >= l.cfg.EntityRate {
		return validate.RateRejectedLimit
	}
	if l.cfg.GlobalRate > 0 && len(l.global) >= l.cfg.GlobalRate {
		return validate.RateRejectedLimit
	}

	l.global = appendBounded(l.global, now)
	st.timestamps = appendBounded(st.timestamps, now)
	st.lastAdmitted = now

	return validate.RateAdmitted
}

// prune drops entries older than window, preserving order.
func prune(ts []time.Time, now time.Time) []time.Time {
	cut := 0
	for cut < len(ts) && now.Sub(ts[cut]) >= window {
		cut++
	}
	if cut == 0 {
		return ts
	}
	return append(ts[:0], ts[cut:]...)
}

// appendBounded appends t, dropping the oldest entry if the deque is at
// capacity.
func appendBounded(ts []time.Time, t time.Time) []time.Time {
	if len(ts) >= dequeCapacity {
		ts = ts[1:]
	}
	return append(ts, t)
}
