// Package logs keeps a bounded per-session ring of log entries, eagerly
// soft-trimming a session whose count overruns its budget and otherwise
// relying on a periodic hard prune. Grounded on the teacher's bounded
// in-memory collections (itskum47-FluxForge's DegradedMode.pendingWrites
// "bounded to prevent OOM" posture), applied here to debate-session logs
// instead of pending cache writes.
package logs

import (
	"sync"
	"time"
)

// Entry is one log line attributed to a session.
type Entry struct {
	SessionID string
	Timestamp time.Time
	Level     string
	Message   string
}

// Page is the result of a paginated read.
type Page struct {
	Logs    []Entry
	Total   int
	HasMore bool
}

// Config bounds how much log history is retained.
type Config struct {
	MaxLogsPerSession int
	MaxLogAgeMs       int64
	PruneIntervalMs   int64
}

// Ring holds every session's log entries and enforces Config's bounds.
type Ring struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string][]Entry // oldest first
}

// NewRing builds a Ring under cfg.
func NewRing(cfg Config) *Ring {
	return &Ring{cfg: cfg, entries: make(map[string][]Entry)}
}

// Append adds an entry and, if the owning session's count now exceeds
// maxLogsPerSession × 1.2, immediately prunes that session (§4.9).
func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[e.SessionID] = append(r.entries[e.SessionID], e)

	softLimit := float64(r.cfg.MaxLogsPerSession) * 1.2
	if r.cfg.MaxLogsPerSession > 0 && float64(len(r.entries[e.SessionID])) > softLimit {
		r.pruneSessionLocked(e.SessionID)
	}
}

// PruneAll runs the periodic hard prune across every tracked session.
func (r *Ring) PruneAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sessionID := range r.entries {
		r.pruneSessionLocked(sessionID)
	}
}

// pruneSessionLocked drops entries older than maxLogAgeMs, then, if the
// session is still over maxLogsPerSession, drops the oldest surplus from
// the front. Caller must hold r.mu.
func (r *Ring) pruneSessionLocked(sessionID string) {
	entries := r.entries[sessionID]

	if r.cfg.MaxLogAgeMs > 0 {
		cutoff := time.Now().Add(-time.Duration(r.cfg.MaxLogAgeMs) * time.Millisecond)
		kept := entries[:0:0]
		for _, e := range entries {
			if e.Timestamp.After(cutoff) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	if r.cfg.MaxLogsPerSession > 0 && len(entries) > r.cfg.MaxLogsPerSession {
		entries = entries[len(entries)-r.cfg.MaxLogsPerSession:]
	}

	if len(entries) == 0 {
		delete(r.entries, sessionID)
	} else {
		r.entries[sessionID] = entries
	}
}

// Run starts the periodic hard-prune timer and blocks until stop is
// closed.
func (r *Ring) Run(stop <-chan struct{}) {
	interval := time.Duration(r.cfg.PruneIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.PruneAll()
		}
	}
}

// GetWithPagination returns a page of a session's logs, oldest first,
// per the §4.9 read contract.
func (r *Ring) GetWithPagination(sessionID string, offset, limit int) Page {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.entries[sessionID]
	total := len(all)

	if offset >= total {
		return Page{Logs: nil, Total: total, HasMore: false}
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	page := make([]Entry, end-offset)
	copy(page, all[offset:end])

	return Page{Logs: page, Total: total, HasMore: end < total}
}
