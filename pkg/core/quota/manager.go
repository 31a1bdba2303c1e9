package quota

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Manager tracks per-provider usage windows and gates chat calls. The RPM
// and RPH admission checks gate directly on the explicit sliding-window
// counters below (per §4.2 steps 4-5: requestsMinute/requestsHour compared
// to the configured limit, with waitMs computed from the window's
// remaining time) since those counters are also the source of truth for
// observable usage snapshots and must be the thing §8's
// requestsThisMinute<=rpm+1 invariant is checked against. A
// golang.org/x/time/rate.Limiter per provider per window (grounded on
// itskum47-FluxForge's TokenBucketLimiter) is consumed alongside the
// counters in Record as a secondary smoothing signal; it is not exposed
// outside the manager and never gates admission.
type Manager struct {
	mu       sync.RWMutex
	state    map[string]*providerState
	disabled bool

	autoThrottle        bool
	throttleDurationSec int64
	globalDailyBudget   float64 // 0 = unset

	subMu       sync.Mutex
	subscribers []chan Event
}

type providerState struct {
	mu     sync.Mutex
	limits Limits

	minuteStart time.Time
	hourStart   time.Time
	dayStart    time.Time

	requestsMinute int
	requestsHour   int
	tokensMinute   int
	tokensDay      int
	concurrent     int
	dailyCost      float64

	throttled   bool
	throttleEnd time.Time

	minuteLimiter *rate.Limiter
	hourLimiter   *rate.Limiter
}

// NewManager builds a quota manager with auto-throttle enabled and a
// 60-second throttle duration, matching the teacher's conservative
// defaults elsewhere in the codebase.
func NewManager() *Manager {
	return &Manager{
		state:               make(map[string]*providerState),
		autoThrottle:        true,
		throttleDurationSec: 60,
	}
}

// SetDisabled toggles the global bypass (step 1 of the check ordering).
func (m *Manager) SetDisabled(disabled bool) {
	m.mu.Lock()
	m.disabled = disabled
	m.mu.Unlock()
	m.broadcast(Event{Kind: EventConfigChanged, At: time.Now()})
}

// SetGlobalDailyBudget sets (or clears, with 0) the daily cost ceiling
// used for every provider whose Limits.DailyBudget is 0. It is compared
// against each provider's own daily cost; costs are not summed across
// providers.
func (m *Manager) SetGlobalDailyBudget(budget float64) {
	m.mu.Lock()
	m.globalDailyBudget = budget
	m.mu.Unlock()
	m.broadcast(Event{Kind: EventConfigChanged, At: time.Now()})
}

// SetLimits overrides the default limits for provider.
func (m *Manager) SetLimits(provider string, limits Limits) {
	st := m.providerState(provider)
	st.mu.Lock()
	st.limits = limits
	st.minuteLimiter = rate.NewLimiter(rate.Limit(float64(limits.RequestsPerMinute)/60.0), limits.RequestsPerMinute)
	st.hourLimiter = rate.NewLimiter(rate.Limit(float64(limits.RequestsPerHour)/3600.0), limits.RequestsPerHour)
	st.mu.Unlock()
	m.broadcast(Event{Kind: EventConfigChanged, Provider: provider, At: time.Now()})
}

func (m *Manager) providerState(provider string) *providerState {
	m.mu.RLock()
	st, ok := m.state[provider]
	m.mu.RUnlock()
	if ok {
		return st
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok = m.state[provider]; ok {
		return st
	}
	limits := defaultLimits(provider)
	now := time.Now()
	st = &providerState{
		limits:        limits,
		minuteStart:   now,
		hourStart:     now,
		dayStart:      startOfDay(now),
		minuteLimiter: rate.NewLimiter(rate.Limit(float64(limits.RequestsPerMinute)/60.0), limits.RequestsPerMinute),
		hourLimiter:   rate.NewLimiter(rate.Limit(float64(limits.RequestsPerHour)/3600.0), limits.RequestsPerHour),
	}
	m.state[provider] = st
	return st
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// resetWindowsLocked rolls any window whose elapsed time has passed its
// size, resetting counters. Caller must hold st.mu.
func resetWindowsLocked(st *providerState, now time.Time) {
	if now.Sub(st.minuteStart) >= time.Minute {
		st.requestsMinute = 0
		st.tokensMinute = 0
		st.minuteStart = now
	}
	if now.Sub(st.hourStart) >= time.Hour {
		st.requestsHour = 0
		st.hourStart = now
	}
	day := startOfDay(now)
	if day.After(st.dayStart) {
		st.tokensDay = 0
		st.dailyCost = 0
		st.dayStart = day
	}
}

// Check evaluates whether provider may place a call now, per the
// first-match-wins ordering in §4.2.
func (m *Manager) Check(provider string) Decision {
	m.mu.RLock()
	disabled := m.disabled
	m.mu.RUnlock()

	st := m.providerState(provider)
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	resetWindowsLocked(st, now)

	if disabled {
		return Decision{Allowed: true, Snapshot: snapshotLocked(st, provider)}
	}

	if st.throttled {
		if now.Before(st.throttleEnd) {
			return Decision{
				Allowed: false, Reason: "throttled",
				WaitMs: st.throttleEnd.Sub(now).Milliseconds(),
				Snapshot: snapshotLocked(st, provider),
			}
		}
		st.throttled = false
		m.broadcast(Event{Kind: EventUnthrottled, Provider: provider, At: now})
	}

	if st.limits.MaxConcurrent > 0 && st.concurrent >= st.limits.MaxConcurrent {
		return Decision{Allowed: false, Reason: "max concurrency reached", WaitMs: 1000, Snapshot: snapshotLocked(st, provider)}
	}

	if st.limits.RequestsPerMinute > 0 && st.requestsMinute >= st.limits.RequestsPerMinute {
		return Decision{Allowed: false, Reason: "requests-per-minute limit reached",
			WaitMs:   time.Minute.Milliseconds() - now.Sub(st.minuteStart).Milliseconds(),
			Snapshot: snapshotLocked(st, provider)}
	}

	if st.limits.RequestsPerHour > 0 && st.requestsHour >= st.limits.RequestsPerHour {
		return Decision{Allowed: false, Reason: "requests-per-hour limit reached",
			WaitMs:   time.Hour.Milliseconds() - now.Sub(st.hourStart).Milliseconds(),
			Snapshot: snapshotLocked(st, provider)}
	}

	if st.limits.TokensPerMinute > 0 && st.tokensMinute >= st.limits.TokensPerMinute {
		return Decision{Allowed: false, Reason: "tokens-per-minute limit reached",
			WaitMs: time.Minute.Milliseconds() - now.Sub(st.minuteStart).Milliseconds(),
			Snapshot: snapshotLocked(st, provider)}
	}
	if st.limits.TokensPerDay > 0 && st.tokensDay >= st.limits.TokensPerDay {
		return Decision{Allowed: false, Reason: "tokens-per-day limit reached",
			WaitMs: startOfDay(now.Add(24 * time.Hour)).Sub(now).Milliseconds(),
			Snapshot: snapshotLocked(st, provider)}
	}

	budget := m.dailyBudget(st)
	if budget > 0 && st.dailyCost >= budget {
		return Decision{Allowed: false, Reason: "daily cost budget exhausted",
			WaitMs: startOfDay(now.Add(24 * time.Hour)).Sub(now).Milliseconds(),
			Snapshot: snapshotLocked(st, provider)}
	}

	snap := snapshotLocked(st, provider)
	if utilization(st) >= alertThreshold {
		m.broadcast(Event{Kind: EventAlert, Provider: provider, At: now, Payload: map[string]interface{}{
			"utilization": utilization(st),
		}})
	}
	return Decision{Allowed: true, Snapshot: snap}
}

func (m *Manager) dailyBudget(st *providerState) float64 {
	if st.limits.DailyBudget > 0 {
		return st.limits.DailyBudget
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.globalDailyBudget
}

func utilization(st *providerState) float64 {
	max := 0.0
	if st.limits.RequestsPerMinute > 0 {
		max = maxFloat(max, float64(st.requestsMinute)/float64(st.limits.RequestsPerMinute))
	}
	if st.limits.RequestsPerHour > 0 {
		max = maxFloat(max, float64(st.requestsHour)/float64(st.limits.RequestsPerHour))
	}
	if st.limits.TokensPerMinute > 0 {
		max = maxFloat(max, float64(st.tokensMinute)/float64(st.limits.TokensPerMinute))
	}
	if st.limits.TokensPerDay > 0 {
		max = maxFloat(max, float64(st.tokensDay)/float64(st.limits.TokensPerDay))
	}
	return max
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func snapshotLocked(st *providerState, provider string) Snapshot {
	return Snapshot{
		Provider:           provider,
		RequestsThisMinute: st.requestsMinute,
		RequestsThisHour:   st.requestsHour,
		TokensThisMinute:   st.tokensMinute,
		TokensThisDay:      st.tokensDay,
		Concurrent:         st.concurrent,
		DailyCost:          st.dailyCost,
		Throttled:          st.throttled,
	}
}

// Start reserves a concurrency slot for provider, to be released by the
// matching Record call once the in-flight chat settles.
func (m *Manager) Start(provider string) {
	st := m.providerState(provider)
	st.mu.Lock()
	st.concurrent++
	st.mu.Unlock()
	m.broadcast(Event{Kind: EventRequest, Provider: provider, At: time.Now()})
}

// Record accounts a completed call: releases the concurrency slot taken by
// Start and updates the request/token/cost counters.
func (m *Manager) Record(provider string, tokens int, latencyMs int64, success bool) {
	st := m.providerState(provider)
	st.mu.Lock()
	if st.concurrent > 0 {
		st.concurrent--
	}
	now := time.Now()
	resetWindowsLocked(st, now)
	st.requestsMinute++
	st.requestsHour++
	st.tokensMinute += tokens
	st.tokensDay += tokens
	if st.limits.CostPer1kTokens > 0 {
		st.dailyCost += float64(tokens) / 1000.0 * st.limits.CostPer1kTokens
	}
	if st.minuteLimiter != nil {
		st.minuteLimiter.Allow()
	}
	if st.hourLimiter != nil {
		st.hourLimiter.Allow()
	}
	st.mu.Unlock()
}

// RecordRateLimitError reports an upstream rate-limit rejection. If
// auto-throttle is enabled, the provider is throttled for
// throttleDurationSec.
func (m *Manager) RecordRateLimitError(provider string) {
	m.mu.RLock()
	auto := m.autoThrottle
	dur := m.throttleDurationSec
	m.mu.RUnlock()
	if !auto {
		return
	}

	st := m.providerState(provider)
	now := time.Now()
	st.mu.Lock()
	if st.concurrent > 0 {
		st.concurrent--
	}
	st.throttled = true
	st.throttleEnd = now.Add(time.Duration(dur) * time.Second)
	st.mu.Unlock()

	m.broadcast(Event{Kind: EventThrottled, Provider: provider, At: now})
}

// Unthrottle is an administrative override clearing a provider's throttle
// flag immediately.
func (m *Manager) Unthrottle(provider string) {
	st := m.providerState(provider)
	st.mu.Lock()
	st.throttled = false
	st.mu.Unlock()
	m.broadcast(Event{Kind: EventUnthrottled, Provider: provider, At: time.Now()})
}

// Usage returns the current snapshot for provider without mutating state.
func (m *Manager) Usage(provider string) Snapshot {
	st := m.providerState(provider)
	st.mu.Lock()
	defer st.mu.Unlock()
	resetWindowsLocked(st, time.Now())
	return snapshotLocked(st, provider)
}

// Subscribe registers a buffered channel that receives every emitted
// Event, mirroring the teacher orchestrator's Subscribe/broadcast shape.
func (m *Manager) Subscribe() chan Event {
	ch := make(chan Event, 100)
	m.subMu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a previously subscribed channel.
func (m *Manager) Unsubscribe(ch chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (m *Manager) broadcast(evt Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}
