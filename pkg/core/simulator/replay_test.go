package simulator

import (
	"testing"

	"autopilot/pkg/core/consensus"
)

func voteSet(approvals, rejections int) []consensus.Vote {
	var vs []consensus.Vote
	for i := 0; i < approvals; i++ {
		vs = append(vs, consensus.Vote{Supervisor: "approver", Approved: true, Confidence: 0.9, Weight: 1.0})
	}
	for i := 0; i < rejections; i++ {
		vs = append(vs, consensus.Vote{Supervisor: "rejecter", Approved: false, Confidence: 0.9, Weight: 1.0})
	}
	return vs
}

func TestReplayRoundTripIsUnchanged(t *testing.T) {
	stored := StoredDebate{
		ID:            "d1",
		Team:          []string{"approver", "rejecter"},
		ConsensusMode: consensus.ModeSimpleMajority,
		Rounds:        [][]consensus.Vote{voteSet(2, 1)},
	}

	result := Replay(stored, ReplayConfig{})
	if result.OutcomeChanged {
		t.Errorf("expected replay with no overrides to reproduce the original outcome, got %+v", result)
	}
	if result.NewOutcome != OutcomeApproved {
		t.Errorf("expected majority of 2-1 to approve, got %v", result.NewOutcome)
	}
}

func TestReplayModeChangeFlipsOutcomeToDeadlock(t *testing.T) {
	stored := StoredDebate{
		ID:            "d2",
		Team:          []string{"approver", "rejecter"},
		ConsensusMode: consensus.ModeSimpleMajority,
		Rounds:        [][]consensus.Vote{voteSet(2, 1)},
	}

	result := Replay(stored, ReplayConfig{Mode: consensus.ModeUnanimous})
	if !result.OutcomeChanged {
		t.Error("expected switching to unanimous to change the outcome")
	}
	if result.NewOutcome != OutcomeDeadlock {
		t.Errorf("expected a 2-1 split under unanimous to deadlock, got %v", result.NewOutcome)
	}
}

func TestReplayTeamFilterDropsExcludedVotes(t *testing.T) {
	stored := StoredDebate{
		ID:            "d3",
		Team:          []string{"approver", "rejecter"},
		ConsensusMode: consensus.ModeSimpleMajority,
		Rounds: [][]consensus.Vote{
			{
				{Supervisor: "approver", Approved: true, Confidence: 0.9, Weight: 1.0},
				{Supervisor: "rejecter", Approved: false, Confidence: 0.9, Weight: 1.0},
			},
		},
	}

	result := Replay(stored, ReplayConfig{TeamFilter: []string{"approver"}})
	if len(result.Rounds) != 1 {
		t.Fatalf("expected one round compared, got %d", len(result.Rounds))
	}
	if _, ok := result.Rounds[0].ReplayVotes["rejecter"]; ok {
		t.Error("expected the filtered-out supervisor's vote to be absent from the replay")
	}
	if result.NewOutcome != OutcomeApproved {
		t.Errorf("expected the lone remaining approve vote to pass majority, got %v", result.NewOutcome)
	}
}
