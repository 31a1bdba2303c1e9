// Package simulator replays stored debates under alternate consensus
// configurations, synthesizes entirely mock debates for rehearsal, and
// searches for team compositions that flip an outcome. Grounded on
// pkg/core/consensus (reused for both replay and synthetic evaluation)
// and the teacher's deterministic-seed posture (debate.newDebateID's
// injectable *rand.Rand), no teacher analogue exists for replay/what-if
// since the finance domain never re-evaluates a stored debate.
package simulator

import (
	"autopilot/pkg/core/consensus"
)

// RoundOutcome is what a per-round evaluator reports for the simulator's
// own (distinct from C4's full evaluation) round-progress checks.
type RoundOutcome string

const (
	OutcomeApproved RoundOutcome = "approved"
	OutcomeRejected RoundOutcome = "rejected"
	OutcomeDeadlock RoundOutcome = "deadlock"
	OutcomeContinue RoundOutcome = "continue"
)

// StoredDebate is the subset of a persisted debate the simulator needs:
// the original team and the per-round vote arrays as cast.
type StoredDebate struct {
	ID         string
	Team       []string
	ConsensusMode consensus.Mode
	Rounds     [][]consensus.Vote // per round, in round order; last round is the final vote
}

// ReplayConfig overrides the stored debate's mode and/or restricts the
// team considered.
type ReplayConfig struct {
	Mode       consensus.Mode
	Threshold  float64
	Lead       string
	TeamFilter []string // empty = no restriction
}

// RoundComparison is one round's original-vs-replay comparison.
type RoundComparison struct {
	Round           int
	OriginalVotes   map[string]consensus.Vote
	ReplayVotes     map[string]consensus.Vote
	OriginalOutcome RoundOutcome
	ReplayOutcome   RoundOutcome
	Changed         bool
}

// ReplayResult is the outcome of Replay.
type ReplayResult struct {
	Rounds         []RoundComparison
	NewOutcome     RoundOutcome
	OutcomeChanged bool
	Analysis       string
}

// SimulationConfig parameterizes a synthetic (no-network) debate.
type SimulationConfig struct {
	Topic         string
	Context       string
	Mode          consensus.Mode
	Team          []string
	MaxRounds     int
	MockResponses map[string]consensus.Vote // supervisor -> scripted final vote
	Randomize     bool
	BiasToward    string // "approve" | "reject" | "" (none)
}

// CallMetrics models one synthetic supervisor call's sampled cost, used
// so a simulated debate can be fed through the same quota-accounting
// path as a real one.
type CallMetrics struct {
	LatencyMs int64
	Tokens    int
}

// SimulationResult is the outcome of Simulate.
type SimulationResult struct {
	Rounds   []map[string]consensus.Vote
	Metrics  []map[string]CallMetrics // per round, supervisor -> sampled cost
	Outcome  RoundOutcome
	Decision consensus.Result
}

// Scenario is one named what-if replay input.
type Scenario struct {
	Name   string
	Config ReplayConfig
}

// ScenarioResult pairs a scenario with its replay result.
type ScenarioResult struct {
	Scenario Scenario
	Result   ReplayResult
}

// ModeComparison is one mode's outcome under compareConsensusModes.
type ModeComparison struct {
	Outcome      RoundOutcome
	RoundsNeeded int
}
