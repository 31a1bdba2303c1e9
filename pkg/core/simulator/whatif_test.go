package simulator

import (
	"testing"

	"autopilot/pkg/core/consensus"
)

func threeSupervisorStoredDebate() StoredDebate {
	return StoredDebate{
		ID:            "d4",
		Team:          []string{"a", "b", "c"},
		ConsensusMode: consensus.ModeSimpleMajority,
		Rounds: [][]consensus.Vote{
			{
				{Supervisor: "a", Approved: true, Confidence: 0.9, Weight: 1.0},
				{Supervisor: "b", Approved: true, Confidence: 0.9, Weight: 1.0},
				{Supervisor: "c", Approved: false, Confidence: 0.9, Weight: 1.0},
			},
		},
	}
}

func TestWhatIfRunsEachScenario(t *testing.T) {
	stored := threeSupervisorStoredDebate()
	scenarios := []Scenario{
		{Name: "unanimous", Config: ReplayConfig{Mode: consensus.ModeUnanimous}},
		{Name: "only-a-and-b", Config: ReplayConfig{TeamFilter: []string{"a", "b"}}},
	}

	results := WhatIf(stored, scenarios)
	if len(results) != 2 {
		t.Fatalf("expected one result per scenario, got %d", len(results))
	}
	if results[0].Result.NewOutcome != OutcomeDeadlock {
		t.Errorf("expected the unanimous scenario to deadlock on a 2-1 split, got %v", results[0].Result.NewOutcome)
	}
	if results[1].Result.NewOutcome != OutcomeApproved {
		t.Errorf("expected restricting to the two approvers to approve, got %v", results[1].Result.NewOutcome)
	}
}

func TestCompareConsensusModesCoversAllEight(t *testing.T) {
	stored := threeSupervisorStoredDebate()
	comparisons := CompareConsensusModes(stored)
	if len(comparisons) != 8 {
		t.Fatalf("expected all eight consensus modes compared, got %d", len(comparisons))
	}
	if comparisons[consensus.ModeUnanimous].Outcome != OutcomeDeadlock {
		t.Errorf("expected unanimous to deadlock, got %v", comparisons[consensus.ModeUnanimous].Outcome)
	}
}

func TestFindOptimalTeamReturnsSubsetReachingTarget(t *testing.T) {
	stored := threeSupervisorStoredDebate()

	subset, ok := FindOptimalTeam(stored, OutcomeApproved, 2)
	if !ok {
		t.Fatal("expected a subset achieving approval to be found")
	}
	if len(subset) < 2 {
		t.Errorf("expected the returned subset to respect minSize, got %v", subset)
	}
	for _, name := range subset {
		if name == "c" {
			t.Error("expected the dissenting supervisor to be excluded from the approving subset")
		}
	}
}

func TestFindOptimalTeamReportsNoMatch(t *testing.T) {
	stored := threeSupervisorStoredDebate()

	_, ok := FindOptimalTeam(stored, RoundOutcome("impossible-outcome"), 1)
	if ok {
		t.Error("expected no subset to match an unreachable target outcome")
	}
}
