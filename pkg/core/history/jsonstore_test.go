package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONStoreSaveAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}

	ctx := context.Background()
	now := time.Now()
	if err := s.Save(ctx, Record{ID: "a", Timestamp: now, TaskID: "t1", Approved: true, Consensus: 0.8, TaskType: "bug-fix"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, Record{ID: "b", Timestamp: now.Add(time.Minute), TaskID: "t2", Approved: false, Consensus: 0.3, TaskType: "testing"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	records, err := reloaded.Query(ctx, Query{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records to survive a reload, got %d", len(records))
	}
}

func TestJSONStoreFilterApprovedOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, _ := NewJSONStore(path)
	ctx := context.Background()
	s.Save(ctx, Record{ID: "a", Timestamp: time.Now(), Approved: true})
	s.Save(ctx, Record{ID: "b", Timestamp: time.Now(), Approved: false})

	records, err := s.Query(ctx, Query{Filter: Filter{ApprovedOnly: true}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("expected only the approved record, got %v", records)
	}
}

func TestJSONStoreSortDescending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, _ := NewJSONStore(path)
	ctx := context.Background()
	s.Save(ctx, Record{ID: "a", Timestamp: time.Now(), Consensus: 0.2})
	s.Save(ctx, Record{ID: "b", Timestamp: time.Now(), Consensus: 0.9})

	records, err := s.Query(ctx, Query{Sort: SortByConsensus, Descending: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 2 || records[0].ID != "b" {
		t.Errorf("expected highest-consensus record first, got %v", records)
	}
}

func TestJSONStoreStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, _ := NewJSONStore(path)
	ctx := context.Background()
	s.Save(ctx, Record{ID: "a", Timestamp: time.Now(), Approved: true, Consensus: 1.0, TaskType: "bug-fix"})
	s.Save(ctx, Record{ID: "b", Timestamp: time.Now(), Approved: false, Consensus: 0.0, TaskType: "bug-fix"})

	stats, err := s.Stats(ctx, Filter{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 || stats.ApprovedCount != 1 || stats.RejectedCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.AverageConsensus != 0.5 {
		t.Errorf("expected average consensus 0.5, got %v", stats.AverageConsensus)
	}
}

func TestJSONStorePruneByMaxRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, _ := NewJSONStore(path)
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 5; i++ {
		s.Save(ctx, Record{ID: string(rune('a' + i)), Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	deleted, err := s.Prune(ctx, 0, 3)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 records pruned, got %d", deleted)
	}
	records, _ := s.Query(ctx, Query{})
	if len(records) != 3 {
		t.Errorf("expected 3 records remaining, got %d", len(records))
	}
}

func TestJSONStoreExportCSVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, _ := NewJSONStore(path)
	ctx := context.Background()
	s.Save(ctx, Record{ID: "a", Timestamp: time.Now(), TaskID: "t1"})

	csv, err := s.ExportCSV(ctx, Query{})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if len(csv) == 0 {
		t.Error("expected non-empty CSV export")
	}
}
