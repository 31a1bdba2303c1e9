package simulator

import (
	"fmt"
	"strings"

	"autopilot/pkg/core/consensus"
)

// Replay re-applies cfg's consensus rule over stored's per-round vote
// arrays, filtered to cfg.TeamFilter when set, stopping at the first
// round whose simulator-evaluated outcome is not "continue" (§4.7).
func Replay(stored StoredDebate, cfg ReplayConfig) ReplayResult {
	mode := cfg.Mode
	if mode == "" {
		mode = stored.ConsensusMode
	}

	var comparisons []RoundComparison
	var finalOutcome RoundOutcome = OutcomeContinue
	outcomeChanged := false

	for i, roundVotes := range stored.Rounds {
		filtered := filterVotes(roundVotes, cfg.TeamFilter)

		originalOutcome := evaluateRound(roundVotes, stored.ConsensusMode)
		replayOutcome := evaluateRound(filtered, mode)

		comparisons = append(comparisons, RoundComparison{
			Round:           i + 1,
			OriginalVotes:   votesByName(roundVotes),
			ReplayVotes:     votesByName(filtered),
			OriginalOutcome: originalOutcome,
			ReplayOutcome:   replayOutcome,
			Changed:         originalOutcome != replayOutcome,
		})

		if originalOutcome != replayOutcome {
			outcomeChanged = true
		}

		if replayOutcome != OutcomeContinue {
			finalOutcome = replayOutcome
			break
		}
		finalOutcome = replayOutcome
	}

	return ReplayResult{
		Rounds:         comparisons,
		NewOutcome:     finalOutcome,
		OutcomeChanged: outcomeChanged,
		Analysis:       buildAnalysis(stored, cfg, mode, comparisons, finalOutcome, outcomeChanged),
	}
}

func filterVotes(votes []consensus.Vote, team []string) []consensus.Vote {
	if len(team) == 0 {
		return votes
	}
	allowed := make(map[string]bool, len(team))
	for _, name := range team {
		allowed[name] = true
	}
	var filtered []consensus.Vote
	for _, v := range votes {
		if allowed[v.Supervisor] {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

func votesByName(votes []consensus.Vote) map[string]consensus.Vote {
	m := make(map[string]consensus.Vote, len(votes))
	for _, v := range votes {
		m[v.Supervisor] = v
	}
	return m
}

func buildAnalysis(stored StoredDebate, cfg ReplayConfig, mode consensus.Mode, comparisons []RoundComparison, outcome RoundOutcome, changed bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Replayed debate %s under mode %q", stored.ID, mode)
	if len(cfg.TeamFilter) > 0 {
		fmt.Fprintf(&sb, " restricted to team %v", cfg.TeamFilter)
	}
	sb.WriteString(".\n")

	if mode != stored.ConsensusMode {
		fmt.Fprintf(&sb, "Consensus-mode impact: original mode %q vs replay mode %q.\n", stored.ConsensusMode, mode)
	}
	if len(cfg.TeamFilter) > 0 && len(cfg.TeamFilter) != len(stored.Team) {
		fmt.Fprintf(&sb, "Team-composition delta: %d of %d original supervisors retained.\n", len(cfg.TeamFilter), len(stored.Team))
	}

	if changed {
		fmt.Fprintf(&sb, "Recommendation: the outcome changed to %q across %d round(s); review the diverging round before trusting this configuration change.\n", outcome, len(comparisons))
	} else {
		sb.WriteString("Recommendation: the outcome is stable under this configuration.\n")
	}
	return sb.String()
}
