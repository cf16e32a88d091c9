// Package ratelimit enforces named per-operation request quotas. Each
// public operation has a requests-per-minute budget applied per caller; an
// exceeded budget rejects the request before the operation runs.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Budgets maps operation names to requests-per-minute allowances.
type Budgets map[string]int

// DefaultBudgets mirrors the documented quotas of the public API.
func DefaultBudgets() Budgets {
	return Budgets{
		"list_events":       60,
		"get_event":         60,
		"list_tiers":        60,
		"create_event":      10,
		"update_event":      10,
		"delete_event":      5,
		"create_tier":       10,
		"update_tier":       10,
		"create_rsvp":       20,
		"cancel_rsvp":       20,
		"check_in_attendee": 30,
		"validate_checkin":  30,
		"mark_no_show":      30,
		"event_attendees":   20,
		"check_in_summary":  10,
		"list_my_rsvps":     30,
	}
}

const defaultPerMinute = 60

// Limiter hands out a token bucket per (operation, caller) pair.
type Limiter struct {
	budgets Budgets

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func New(budgets Budgets) *Limiter {
	if budgets == nil {
		budgets = DefaultBudgets()
	}
	return &Limiter{
		budgets: budgets,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether caller key may run op right now.
func (l *Limiter) Allow(op, key string) bool {
	perMinute, ok := l.budgets[op]
	if !ok {
		perMinute = defaultPerMinute
	}

	l.mu.Lock()
	bucket, ok := l.buckets[op+"|"+key]
	if !ok {
		// Burst equals the per-minute budget so short spikes inside the
		// window are not rejected.
		bucket = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		l.buckets[op+"|"+key] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}
