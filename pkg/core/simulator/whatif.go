package simulator

import "autopilot/pkg/core/consensus"

// maxTeamSubsetsScanned bounds findOptimalTeam's combinatorial search so a
// large original team cannot make the call run indefinitely.
const maxTeamSubsetsScanned = 1 << 16

// WhatIf runs each scenario's replay in sequence against stored and
// pairs it with its result.
func WhatIf(stored StoredDebate, scenarios []Scenario) []ScenarioResult {
	results := make([]ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		results = append(results, ScenarioResult{
			Scenario: sc,
			Result:   Replay(stored, sc.Config),
		})
	}
	return results
}

var allConsensusModes = []consensus.Mode{
	consensus.ModeSimpleMajority,
	consensus.ModeSupermajority,
	consensus.ModeUnanimous,
	consensus.ModeWeighted,
	consensus.ModeCEOOverride,
	consensus.ModeCEOVeto,
	consensus.ModeHybridCEOMajority,
	consensus.ModeRankedChoice,
}

// CompareConsensusModes replays stored under every consensus mode and
// reports each mode's outcome and how many rounds it took to reach it.
func CompareConsensusModes(stored StoredDebate) map[consensus.Mode]ModeComparison {
	out := make(map[consensus.Mode]ModeComparison, len(allConsensusModes))
	for _, mode := range allConsensusModes {
		result := Replay(stored, ReplayConfig{Mode: mode})
		out[mode] = ModeComparison{Outcome: result.NewOutcome, RoundsNeeded: len(result.Rounds)}
	}
	return out
}

// FindOptimalTeam enumerates subsets of stored.Team with size >= minSize,
// stopping at the first subset whose replay reaches target, scanning at
// most maxTeamSubsetsScanned combinations. Returns (nil, false) if no
// subset within the scan budget reaches target.
func FindOptimalTeam(stored StoredDebate, target RoundOutcome, minSize int) ([]string, bool) {
	team := stored.Team
	n := len(team)
	if n == 0 {
		return nil, false
	}

	scanned := 0
	for mask := 1; mask < (1 << n); mask++ {
		if scanned >= maxTeamSubsetsScanned {
			return nil, false
		}
		scanned++

		subset := subsetFromMask(team, mask)
		if len(subset) < minSize {
			continue
		}

		result := Replay(stored, ReplayConfig{TeamFilter: subset})
		if result.NewOutcome == target {
			return subset, true
		}
	}
	return nil, false
}

func subsetFromMask(team []string, mask int) []string {
	var subset []string
	for i, name := range team {
		if mask&(1<<i) != 0 {
			subset = append(subset, name)
		}
	}
	return subset
}
