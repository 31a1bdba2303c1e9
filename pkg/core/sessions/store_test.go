package sessions

import (
	"path/filepath"
	"testing"
	"time"
)

func TestPersistAndFlushSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Persist(Session{ID: "a", Status: StatusRunning})
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	sess, ok := reloaded.Get("a")
	if !ok || sess.Status != StatusRunning {
		t.Errorf("expected session a to survive a reload as running, got %+v ok=%v", sess, ok)
	}
}

func TestFlushIsNoOpWhenNotDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, _ := Open(path, 0)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush on empty store: %v", err)
	}
}

func TestPersistEvictsOldestNonRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, _ := Open(path, 2)

	s.Persist(Session{ID: "a", Status: StatusStopped})
	time.Sleep(time.Millisecond)
	s.Persist(Session{ID: "b", Status: StatusRunning})
	time.Sleep(time.Millisecond)
	s.Persist(Session{ID: "c", Status: StatusStopped})

	if _, ok := s.Get("a"); ok {
		t.Error("expected the oldest non-running session to be evicted")
	}
	if _, ok := s.Get("b"); !ok {
		t.Error("expected the running session to survive eviction")
	}
	if _, ok := s.Get("c"); !ok {
		t.Error("expected the newest session to survive eviction")
	}
}

func TestResumableFiltersByStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, _ := Open(path, 0)
	s.Persist(Session{ID: "a", Status: StatusRunning})
	s.Persist(Session{ID: "b", Status: StatusPaused})
	s.Persist(Session{ID: "c", Status: StatusStopped})
	s.Persist(Session{ID: "d", Status: StatusFailed})

	resumable := s.Resumable()
	if len(resumable) != 2 {
		t.Errorf("expected exactly 2 resumable sessions (running, paused), got %d", len(resumable))
	}
}
