package debate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"autopilot/pkg/core/consensus"
	"autopilot/pkg/core/history"
	"autopilot/pkg/core/quota"
	"autopilot/pkg/core/supervisor"
	"autopilot/pkg/core/team"
)

// stubSupervisor is a deterministic in-memory Supervisor for orchestrator
// tests, grounded on the teacher's mock_agents.go posture of scripted,
// no-network test doubles (rewritten here against the C1 interface).
type stubSupervisor struct {
	name     string
	provider string
	reply    string
	err      error
	calls    int
}

func (s *stubSupervisor) Name() string     { return s.name }
func (s *stubSupervisor) Provider() string { return s.provider }
func (s *stubSupervisor) Available(ctx context.Context) bool { return true }
func (s *stubSupervisor) Chat(ctx context.Context, messages []supervisor.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestOrchestrator(supervisors ...*stubSupervisor) (*Orchestrator, *supervisor.Registry) {
	reg := supervisor.NewRegistry()
	for _, s := range supervisors {
		reg.Register(s)
	}
	sel := team.NewSelector()
	q := quota.NewManager()
	return NewOrchestrator(reg, q, sel, nil, Config{Rounds: 2, ConsensusMode: consensus.ModeSimpleMajority}), reg
}

func TestDebateZeroSupervisorsAutoApproves(t *testing.T) {
	reg := supervisor.NewRegistry()
	sel := team.NewSelector()
	q := quota.NewManager()
	o := NewOrchestrator(reg, q, sel, nil, Config{Rounds: 2, ConsensusMode: consensus.ModeSimpleMajority})

	d, err := o.Debate(context.Background(), Task{ID: "t1", Description: "fix a bug in the parser"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Approved || d.Consensus != 1.0 {
		t.Errorf("expected auto-approve decision, got %+v", d)
	}
}

func TestDebateApprovesOnCanonicalVotes(t *testing.T) {
	a := &stubSupervisor{name: "debugger", provider: "openai", reply: "VOTE: APPROVE\nCONFIDENCE: 0.9\nREASONING: fine."}
	b := &stubSupervisor{name: "architect", provider: "anthropic", reply: "VOTE: APPROVE\nCONFIDENCE: 0.8\nREASONING: fine."}
	o, _ := newTestOrchestrator(a, b)

	d, err := o.Debate(context.Background(), Task{ID: "t2", Description: "fix a crash in the stack trace handler"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Approved {
		t.Errorf("expected approval, got reasoning %q", d.Reasoning)
	}
	if a.calls == 0 || b.calls == 0 {
		t.Error("expected both supervisors to be called across rounds and the vote")
	}
}

func TestDebateStubsFailedSupervisorReply(t *testing.T) {
	a := &stubSupervisor{name: "debugger", provider: "openai", err: fmt.Errorf("network down")}
	b := &stubSupervisor{name: "architect", provider: "anthropic", reply: "VOTE: APPROVE\nCONFIDENCE: 0.9\nREASONING: fine."}
	o, _ := newTestOrchestrator(a, b)

	d, err := o.Debate(context.Background(), Task{ID: "t3", Description: "fix a crash in the stack trace handler"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One supervisor's chat call failing must not halt the debate.
	if len(d.Votes) != 2 {
		t.Fatalf("expected both supervisors to still produce a vote (one synthetic), got %d", len(d.Votes))
	}
}

func TestDebateRejectsConcurrentSameTaskID(t *testing.T) {
	o, _ := newTestOrchestrator(&stubSupervisor{name: "debugger", provider: "openai", reply: "VOTE: APPROVE\nCONFIDENCE: 0.9\nREASONING: fine."})

	if !o.tryMarkActive("dup") {
		t.Fatal("expected first mark to succeed")
	}
	if o.tryMarkActive("dup") {
		t.Error("expected a second concurrent debate on the same task id to be rejected")
	}
	o.clearActive("dup")
	if !o.tryMarkActive("dup") {
		t.Error("expected task id to be markable again after clearActive")
	}
}

func TestDebateCancellationProducesNoDecision(t *testing.T) {
	a := &stubSupervisor{name: "debugger", provider: "openai", reply: "VOTE: APPROVE\nCONFIDENCE: 0.9\nREASONING: fine."}
	o, _ := newTestOrchestrator(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := o.Debate(ctx, Task{ID: "t4", Description: "fix a crash"})
	if err == nil {
		t.Fatal("expected cancellation to surface an error")
	}
	if d != nil {
		t.Errorf("expected no decision on cancellation, got %+v", d)
	}
}

func TestDebatePersistsCompletedRecord(t *testing.T) {
	store := &memStore{}
	reg := supervisor.NewRegistry()
	reg.Register(&stubSupervisor{name: "debugger", provider: "openai", reply: "VOTE: APPROVE\nCONFIDENCE: 0.9\nREASONING: fine."})
	sel := team.NewSelector()
	q := quota.NewManager()
	o := NewOrchestrator(reg, q, sel, store, Config{Rounds: 1, ConsensusMode: consensus.ModeSimpleMajority})

	_, err := o.Debate(context.Background(), Task{ID: "t5", Description: "fix a crash in the stack trace handler"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected exactly one persisted record, got %d", len(store.saved))
	}
	if store.saved[0].TaskID != "t5" {
		t.Errorf("expected persisted record for t5, got %q", store.saved[0].TaskID)
	}
}

func TestChatWithFallbackTriesLeadFirst(t *testing.T) {
	lead := &stubSupervisor{name: "architect", provider: "anthropic", err: fmt.Errorf("down")}
	other := &stubSupervisor{name: "debugger", provider: "openai", reply: "ok"}
	reg := supervisor.NewRegistry()
	reg.Register(lead)
	reg.Register(other)
	sel := team.NewSelector()
	q := quota.NewManager()
	o := NewOrchestrator(reg, q, sel, nil, Config{Lead: "architect", FallbackOrder: []string{"debugger"}})

	text, answeredBy := o.ChatWithFallback(context.Background(), []supervisor.Message{{Role: supervisor.RoleUser, Content: "hi"}})
	if lead.calls != 1 {
		t.Errorf("expected the lead to be tried first, got %d calls", lead.calls)
	}
	if answeredBy != "debugger" || text != "ok" {
		t.Errorf("expected fallback to debugger after lead failed, got answeredBy=%q text=%q", answeredBy, text)
	}
}

func TestChatWithFallbackAllUnreachable(t *testing.T) {
	a := &stubSupervisor{name: "debugger", provider: "openai", err: fmt.Errorf("down")}
	reg := supervisor.NewRegistry()
	reg.Register(a)
	sel := team.NewSelector()
	q := quota.NewManager()
	o := NewOrchestrator(reg, q, sel, nil, Config{})

	text, answeredBy := o.ChatWithFallback(context.Background(), []supervisor.Message{{Role: supervisor.RoleUser, Content: "hi"}})
	if answeredBy != "" || text != "" {
		t.Errorf("expected empty result when every supervisor fails, got answeredBy=%q text=%q", answeredBy, text)
	}
}

func TestDebateReasoningFlagsAllSupervisorsUnreachable(t *testing.T) {
	a := &stubSupervisor{name: "debugger", provider: "openai", err: fmt.Errorf("down")}
	b := &stubSupervisor{name: "architect", provider: "anthropic", err: fmt.Errorf("down")}
	o, _ := newTestOrchestrator(a, b)

	d, err := o.Debate(context.Background(), Task{ID: "t6", Description: "fix a crash in the stack trace handler"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(d.Reasoning, "all supervisors unreachable:") {
		t.Errorf("expected reasoning to flag total unreachability, got %q", d.Reasoning)
	}
}

// memStore is a minimal in-memory history.Store double for orchestrator
// persistence tests; the full implementations live in pkg/core/history.
type memStore struct {
	saved []history.Record
}

func (m *memStore) Save(ctx context.Context, r history.Record) error {
	m.saved = append(m.saved, r)
	return nil
}
func (m *memStore) Query(ctx context.Context, q history.Query) ([]history.Record, error) {
	return m.saved, nil
}
func (m *memStore) Stats(ctx context.Context, f history.Filter) (history.Stats, error) {
	return history.Stats{Total: len(m.saved)}, nil
}
func (m *memStore) ExportCSV(ctx context.Context, q history.Query) (string, error)  { return "", nil }
func (m *memStore) ExportJSON(ctx context.Context, q history.Query) (string, error) { return "", nil }
func (m *memStore) Prune(ctx context.Context, retentionDays int, maxRecords int) (int, error) {
	return 0, nil
}
func (m *memStore) Close() error { return nil }
