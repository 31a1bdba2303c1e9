package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

func nowMinusDays(days int) time.Time {
	return time.Now().AddDate(0, 0, -days)
}

// JSONStore persists debate records to a single JSON document on disk,
// for installs with no database configured. Grounded on
// TranscriptLoader's os.ReadFile/json.Unmarshal load shape, with writes
// done via a temp-file-then-rename swap so a crash mid-write never
// corrupts the file.
type JSONStore struct {
	mu   sync.Mutex
	path string
	data []Record
}

// NewJSONStore loads path if it exists, or starts empty.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("history: read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("history: parse %s: %w", path, err)
	}
	return s, nil
}

func (s *JSONStore) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("history: mkdir: %w", err)
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("history: write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("history: rename temp file: %w", err)
	}
	return nil
}

func (s *JSONStore) Save(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, r)
	return s.flushLocked()
}

func (s *JSONStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Record
	for _, r := range s.data {
		if matchesFilter(r, q.Filter) {
			matched = append(matched, r)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		less := lessBySort(matched[i], matched[j], q.Sort)
		if q.Descending {
			return !less
		}
		return less
	})

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func matchesFilter(r Record, f Filter) bool {
	if f.SessionID != "" && r.SessionID != f.SessionID {
		return false
	}
	if f.TaskType != "" && r.TaskType != f.TaskType {
		return false
	}
	if f.ApprovedOnly && !r.Approved {
		return false
	}
	if f.RejectedOnly && r.Approved {
		return false
	}
	if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.Timestamp.After(f.Until) {
		return false
	}
	return true
}

func lessBySort(a, b Record, field SortField) bool {
	switch field {
	case SortByConsensus:
		return a.Consensus < b.Consensus
	case SortByDurationMs:
		return a.DurationMs < b.DurationMs
	default:
		return a.Timestamp.Before(b.Timestamp)
	}
}

func (s *JSONStore) Stats(ctx context.Context, f Filter) (Stats, error) {
	records, err := s.Query(ctx, Query{Filter: f})
	if err != nil {
		return Stats{}, err
	}
	return computeStats(records), nil
}

func (s *JSONStore) ExportCSV(ctx context.Context, q Query) (string, error) {
	records, err := s.Query(ctx, q)
	if err != nil {
		return "", err
	}
	return recordsToCSV(records)
}

func (s *JSONStore) ExportJSON(ctx context.Context, q Query) (string, error) {
	records, err := s.Query(ctx, q)
	if err != nil {
		return "", err
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("history: marshal export: %w", err)
	}
	return string(raw), nil
}

func (s *JSONStore) Prune(ctx context.Context, retentionDays int, maxRecords int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.data)
	if retentionDays > 0 {
		cutoff := nowMinusDays(retentionDays)
		var kept []Record
		for _, r := range s.data {
			if r.Timestamp.After(cutoff) {
				kept = append(kept, r)
			}
		}
		s.data = kept
	}
	if maxRecords > 0 && len(s.data) > maxRecords {
		sort.Slice(s.data, func(i, j int) bool { return s.data[i].Timestamp.Before(s.data[j].Timestamp) })
		s.data = s.data[len(s.data)-maxRecords:]
	}

	deleted := before - len(s.data)
	if deleted > 0 {
		if err := s.flushLocked(); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

func (s *JSONStore) Close() error { return nil }
