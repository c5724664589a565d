package service

import (
	"sync"
	"time"

	"github.com/mannaza/mannaza/internal/config"
)

// MessageLimiter guards the extraction path against rapid repeat submissions.
// It is a usability and cost-control measure, not a correctness mechanism:
// each sender may submit at most once per minimum interval, and a burst of
// submissions inside the burst window locks the sender out entirely for a
// while. Keyed per sender session.
type MessageLimiter struct {
	minInterval time.Duration
	burstLimit  int
	burstWindow time.Duration
	lockout     time.Duration

	mu      sync.Mutex
	senders map[string]*senderState
	now     func() time.Time
}

type senderState struct {
	lastSent     time.Time
	recent       []time.Time
	blockedUntil time.Time
}

// NewMessageLimiter creates a limiter from service configuration
func NewMessageLimiter(cfg config.ServiceConfig) *MessageLimiter {
	return &MessageLimiter{
		minInterval: cfg.MinMessageInterval,
		burstLimit:  cfg.BurstLimit,
		burstWindow: cfg.BurstWindow,
		lockout:     cfg.LockoutDuration,
		senders:     make(map[string]*senderState),
		now:         time.Now,
	}
}

// Allow records a submission attempt for senderID and returns nil if it may
// proceed, or a *RateLimitError telling the sender when to retry.
func (l *MessageLimiter) Allow(senderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	state, ok := l.senders[senderID]
	if !ok {
		state = &senderState{}
		l.senders[senderID] = state
	}

	if now.Before(state.blockedUntil) {
		return &RateLimitError{
			RetryAfter: state.blockedUntil.Sub(now),
			Reason:     "too many messages, temporarily locked out",
		}
	}

	// sliding window: only submissions within the last burstWindow count
	kept := state.recent[:0]
	for _, ts := range state.recent {
		if now.Sub(ts) < l.burstWindow {
			kept = append(kept, ts)
		}
	}
	state.recent = append(kept, now)

	if len(state.recent) >= l.burstLimit {
		state.blockedUntil = now.Add(l.lockout)
		state.recent = nil
		return &RateLimitError{
			RetryAfter: l.lockout,
			Reason:     "sending too fast",
		}
	}

	sinceLast := now.Sub(state.lastSent)
	if !state.lastSent.IsZero() && sinceLast < l.minInterval {
		return &RateLimitError{
			RetryAfter: l.minInterval - sinceLast,
			Reason:     "one message per second",
		}
	}

	state.lastSent = now
	return nil
}

// pruneLocked drops senders that have been quiet long enough that no rule can
// still apply to them. Caller holds the lock.
func (l *MessageLimiter) pruneLocked(now time.Time) {
	if len(l.senders) < 1024 {
		return
	}
	horizon := l.burstWindow
	if l.lockout > horizon {
		horizon = l.lockout
	}
	for id, state := range l.senders {
		if now.Sub(state.lastSent) > horizon && now.After(state.blockedUntil) {
			delete(l.senders, id)
		}
	}
}
