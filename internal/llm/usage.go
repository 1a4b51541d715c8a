package llm

import (
	"fmt"
	"sync"
	"time"
)

const minCooldown = time.Second

type providerStats struct {
	successCount  int
	cooldownUntil time.Time
}

// UsageTracker keeps per-provider, per-UTC-day counters and cooldown
// timestamps. Stats are discarded wholesale when the calendar day rolls
// over, so daily quotas reset exactly once per UTC day regardless of
// process uptime.
//
// Each method locks individually. A skip check and a later cooldown
// recording are therefore not atomic across the intervening network call;
// two concurrent requests can both pass the check and both fail before
// either arms the cooldown. Accepted: the chain absorbs the extra failure.
type UsageTracker struct {
	mu             sync.Mutex
	windowKey      string
	stats          map[Provider]*providerStats
	groqDailyLimit int
	now            func() time.Time
}

// NewUsageTracker constructs a tracker with the given daily quota for the
// groq provider. now is injectable for tests; nil means time.Now.
func NewUsageTracker(groqDailyLimit int, now func() time.Time) *UsageTracker {
	if now == nil {
		now = time.Now
	}
	t := &UsageTracker{
		stats:          make(map[Provider]*providerStats),
		groqDailyLimit: groqDailyLimit,
		now:            now,
	}
	t.windowKey = usageWindowKey(t.now())
	return t
}

// SkipReason reports why p should be skipped for the current request, if it
// should: an active cooldown or an exhausted daily quota. The bool is false
// when the provider may proceed.
func (t *UsageTracker) SkipReason(p Provider) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.rolloverLocked(now)

	stats, ok := t.stats[p]
	if !ok {
		return "", false
	}
	if !stats.cooldownUntil.IsZero() && now.Before(stats.cooldownUntil) {
		remaining := int(stats.cooldownUntil.Sub(now).Seconds() + 0.999)
		return fmt.Sprintf("cooling down for another %ds", remaining), true
	}
	if p == ProviderGroq && t.groqDailyLimit > 0 && stats.successCount >= t.groqDailyLimit {
		return fmt.Sprintf("daily limit reached (%d/%d)", stats.successCount, t.groqDailyLimit), true
	}
	return "", false
}

// RecordSuccess increments p's success counter for the current window.
func (t *UsageTracker) RecordSuccess(p Provider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked(t.now())
	t.statsLocked(p).successCount++
}

// RecordCooldown arms a cooldown for p ending at now + d. Durations under
// one second are floored to one second.
func (t *UsageTracker) RecordCooldown(p Provider, d time.Duration) {
	if d < minCooldown {
		d = minCooldown
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.rolloverLocked(now)
	t.statsLocked(p).cooldownUntil = now.Add(d)
}

func (t *UsageTracker) statsLocked(p Provider) *providerStats {
	stats, ok := t.stats[p]
	if !ok {
		stats = &providerStats{}
		t.stats[p] = stats
	}
	return stats
}

// rolloverLocked discards all stats when the UTC date has changed since the
// last call. Caller must hold the lock.
func (t *UsageTracker) rolloverLocked(now time.Time) {
	key := usageWindowKey(now)
	if key != t.windowKey {
		t.windowKey = key
		t.stats = make(map[Provider]*providerStats)
	}
}

func usageWindowKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}
