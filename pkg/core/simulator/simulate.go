package simulator

import (
	"math/rand"

	"autopilot/pkg/core/consensus"
)

// Simulate synthesizes a no-network debate from cfg, sampling a vote per
// supervisor per round (mock override first, else a randomized or
// default-approve draw), and runs up to MaxRounds, stopping at the first
// round whose simulator-evaluated outcome is not "continue" (§4.7). rng
// is required for determinism — callers needing reproducible results
// pass a seeded source; tests and rehearsal runs typically do.
func Simulate(cfg SimulationConfig, rng *rand.Rand) SimulationResult {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	var rounds []map[string]consensus.Vote
	var metrics []map[string]CallMetrics
	var lastVotes []consensus.Vote
	outcome := RoundOutcome(OutcomeContinue)

	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 1
	}

	for round := 0; round < maxRounds; round++ {
		votes := make([]consensus.Vote, 0, len(cfg.Team))
		roundMetrics := make(map[string]CallMetrics, len(cfg.Team))
		for _, name := range cfg.Team {
			votes = append(votes, sampleVote(name, cfg, rng))
			roundMetrics[name] = CallMetrics{LatencyMs: sampleLatencyMs(rng), Tokens: sampleTokens(rng)}
		}
		lastVotes = votes
		metrics = append(metrics, roundMetrics)

		voteMap := make(map[string]consensus.Vote, len(votes))
		for _, v := range votes {
			voteMap[v.Supervisor] = v
		}
		rounds = append(rounds, voteMap)

		outcome = evaluateRound(votes, cfg.Mode)
		if outcome != OutcomeContinue {
			break
		}
	}

	decision := consensus.Evaluate(lastVotes, consensus.Config{Mode: cfg.Mode})

	return SimulationResult{Rounds: rounds, Metrics: metrics, Outcome: outcome, Decision: decision}
}

func sampleVote(supervisorName string, cfg SimulationConfig, rng *rand.Rand) consensus.Vote {
	if mock, ok := cfg.MockResponses[supervisorName]; ok {
		mock.Supervisor = supervisorName
		return mock
	}

	approved := true
	if cfg.Randomize {
		bias := 0.5
		switch cfg.BiasToward {
		case "approve":
			bias = 0.6
		case "reject":
			bias = 0.4
		}
		approved = rng.Float64() < bias
	}

	confidence := 0.6 + rng.Float64()*0.4 // uniform [0.6, 1.0]

	return consensus.Vote{
		Supervisor: supervisorName,
		Approved:   approved,
		Confidence: confidence,
		Weight:     1.0,
	}
}

// sampleLatencyMs and sampleTokens model the §4.7 uniform ranges for
// synthetic per-call timing/cost, used by callers that want to feed
// simulated calls through the same accounting path as a real debate.
func sampleLatencyMs(rng *rand.Rand) int64 {
	return 500 + rng.Int63n(2001) // uniform [500, 2500]
}

func sampleTokens(rng *rand.Rand) int {
	return 200 + rng.Intn(501) // uniform [200, 700]
}
