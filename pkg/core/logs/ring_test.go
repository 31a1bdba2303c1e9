package logs

import (
	"testing"
	"time"
)

func TestAppendSoftTrimsAtOneTwoFactor(t *testing.T) {
	r := NewRing(Config{MaxLogsPerSession: 5})
	now := time.Now()
	for i := 0; i < 7; i++ {
		r.Append(Entry{SessionID: "s1", Timestamp: now.Add(time.Duration(i) * time.Millisecond), Message: "x"})
	}
	// 7 > 5*1.2=6, so the 7th append should have triggered a soft trim to 5.
	page := r.GetWithPagination("s1", 0, 100)
	if page.Total != 5 {
		t.Errorf("expected soft trim to cap at 5 entries, got %d", page.Total)
	}
}

func TestPruneAllDropsOldEntries(t *testing.T) {
	r := NewRing(Config{MaxLogAgeMs: 10})
	r.Append(Entry{SessionID: "s1", Timestamp: time.Now().Add(-time.Hour), Message: "old"})
	r.Append(Entry{SessionID: "s1", Timestamp: time.Now(), Message: "new"})

	r.PruneAll()

	page := r.GetWithPagination("s1", 0, 100)
	if page.Total != 1 || page.Logs[0].Message != "new" {
		t.Errorf("expected only the fresh entry to survive, got %+v", page)
	}
}

func TestPruneAllKeepsEntriesAtExactLimit(t *testing.T) {
	r := NewRing(Config{MaxLogsPerSession: 2})
	now := time.Now()
	r.Append(Entry{SessionID: "s1", Timestamp: now, Message: "a"})
	r.Append(Entry{SessionID: "s1", Timestamp: now.Add(time.Millisecond), Message: "b"})
	r.PruneAll()

	page := r.GetWithPagination("s1", 0, 100)
	if page.Total != 2 {
		t.Fatalf("expected no trim yet at exactly the limit, got %d", page.Total)
	}
}

func TestGetWithPaginationHasMore(t *testing.T) {
	r := NewRing(Config{})
	now := time.Now()
	for i := 0; i < 5; i++ {
		r.Append(Entry{SessionID: "s1", Timestamp: now.Add(time.Duration(i) * time.Millisecond), Message: "x"})
	}

	page := r.GetWithPagination("s1", 0, 2)
	if len(page.Logs) != 2 || !page.HasMore || page.Total != 5 {
		t.Errorf("unexpected first page: %+v", page)
	}

	page2 := r.GetWithPagination("s1", 4, 2)
	if len(page2.Logs) != 1 || page2.HasMore {
		t.Errorf("unexpected last page: %+v", page2)
	}
}

func TestGetWithPaginationOffsetBeyondTotal(t *testing.T) {
	r := NewRing(Config{})
	r.Append(Entry{SessionID: "s1", Timestamp: time.Now(), Message: "x"})

	page := r.GetWithPagination("s1", 10, 5)
	if len(page.Logs) != 0 || page.HasMore {
		t.Errorf("expected an empty page past the end, got %+v", page)
	}
}
