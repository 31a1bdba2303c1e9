package consensus

import (
	"fmt"
	"math"
	"strings"
)

const dissentExcerptLimit = 300

// Evaluate aggregates votes under cfg and returns the decision.
// WeightedConsensus is always computed alongside whichever mode is
// configured, for observability (§4.4).
func Evaluate(votes []Vote, cfg Config) Result {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = 0.5
	}

	result := Result{
		SimpleConsensus:   simpleConsensus(votes),
		WeightedConsensus: weightedConsensus(votes),
		StrongDissent:     strongDissent(votes),
	}

	switch cfg.Mode {
	case ModeSupermajority:
		result.Approved, result.Reasoning = evalSupermajority(votes)
	case ModeUnanimous:
		result.Approved, result.Reasoning = evalUnanimous(votes)
	case ModeWeighted:
		result.Approved, result.Reasoning = evalWeighted(result.WeightedConsensus, threshold)
	case ModeCEOOverride:
		result.Approved, result.Reasoning = evalCEOOverride(votes, cfg, result.WeightedConsensus, threshold)
	case ModeCEOVeto:
		result.Approved, result.Reasoning = evalCEOVeto(votes, cfg, threshold)
	case ModeHybridCEOMajority:
		result.Approved, result.Reasoning = evalHybridCEOMajority(votes, cfg)
	case ModeRankedChoice:
		result.Approved, result.Reasoning = evalRankedChoice(votes)
	default: // ModeSimpleMajority and unknown modes
		result.Approved, result.Reasoning = evalSimpleMajority(result.SimpleConsensus, threshold)
	}
	return result
}

func simpleConsensus(votes []Vote) float64 {
	if len(votes) == 0 {
		return 0
	}
	approvals := 0
	for _, v := range votes {
		if v.Approved {
			approvals++
		}
	}
	return float64(approvals) / float64(len(votes))
}

func weightedConsensus(votes []Vote) float64 {
	var approveSum, totalWeight float64
	for _, v := range votes {
		w := v.Weight
		if w == 0 {
			w = 1.0
		}
		totalWeight += w
		if v.Approved {
			approveSum += w * v.Confidence
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return approveSum / totalWeight
}

func strongDissent(votes []Vote) []Vote {
	var dissent []Vote
	for _, v := range votes {
		if !v.Approved && v.Confidence > 0.7 {
			excerpted := v
			excerpted.Comment = excerpt(v.Comment, dissentExcerptLimit)
			dissent = append(dissent, excerpted)
		}
	}
	return dissent
}

func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func evalSimpleMajority(simple, threshold float64) (bool, string) {
	approved := simple >= threshold
	return approved, fmt.Sprintf("simple-majority: %.0f%% approval vs. %.0f%% threshold", simple*100, threshold*100)
}

func evalSupermajority(votes []Vote) (bool, string) {
	approvals := 0
	for _, v := range votes {
		if v.Approved {
			approvals++
		}
	}
	need := int(math.Ceil(float64(len(votes)) * 0.667))
	approved := approvals >= need && len(votes) > 0
	return approved, fmt.Sprintf("supermajority: %d/%d approvals, needed %d", approvals, len(votes), need)
}

func evalUnanimous(votes []Vote) (bool, string) {
	if len(votes) == 0 {
		return false, "unanimous: no votes cast"
	}
	for _, v := range votes {
		if !v.Approved {
			return false, "unanimous: at least one rejection"
		}
	}
	return true, "unanimous: all supervisors approved"
}

func evalWeighted(weighted, threshold float64) (bool, string) {
	approved := weighted >= threshold
	return approved, fmt.Sprintf("weighted: %.2f weighted consensus vs. %.2f threshold", weighted, threshold)
}

func evalCEOOverride(votes []Vote, cfg Config, weighted, threshold float64) (bool, string) {
	for _, v := range votes {
		if v.Supervisor == cfg.Lead {
			return v.Approved, fmt.Sprintf("ceo-override: lead %q decided (approved=%v)", cfg.Lead, v.Approved)
		}
	}
	approved, _ := evalWeighted(weighted, threshold)
	return approved, fmt.Sprintf("ceo-override: no vote from lead %q — fell back to weighted consensus %.2f", cfg.Lead, weighted)
}

func evalCEOVeto(votes []Vote, cfg Config, threshold float64) (bool, string) {
	simple := simpleConsensus(votes)
	approved, reason := evalSimpleMajority(simple, threshold)
	for _, v := range votes {
		if v.Supervisor == cfg.Lead && !v.Approved && v.Confidence >= 0.7 {
			return false, fmt.Sprintf("CEO Veto: lead %q vetoed with confidence %.2f despite %s", cfg.Lead, v.Confidence, reason)
		}
	}
	return approved, "ceo-veto: " + reason
}

func evalHybridCEOMajority(votes []Vote, cfg Config) (bool, string) {
	approvals, rejections := 0, 0
	for _, v := range votes {
		if v.Approved {
			approvals++
		} else {
			rejections++
		}
	}
	diff := approvals - rejections
	if diff < 0 {
		diff = -diff
	}
	if diff > 1 {
		approved := approvals > rejections
		return approved, fmt.Sprintf("hybrid-ceo-majority: clear majority %d-%d", approvals, rejections)
	}
	for _, v := range votes {
		if v.Supervisor == cfg.Lead {
			return v.Approved, fmt.Sprintf("hybrid-ceo-majority: tied %d-%d, lead %q broke the tie", approvals, rejections, cfg.Lead)
		}
	}
	return true, fmt.Sprintf("hybrid-ceo-majority: tied %d-%d, no lead vote — defaulted to approve", approvals, rejections)
}

func evalRankedChoice(votes []Vote) (bool, string) {
	var approveScore, rejectScore float64
	for _, v := range votes {
		w := v.Weight
		if w == 0 {
			w = 1.0
		}
		if v.Approved {
			approveScore += w * v.Confidence
		} else {
			rejectScore += w * v.Confidence
		}
	}
	approved := approveScore >= rejectScore
	return approved, fmt.Sprintf("ranked-choice: approve score %.2f vs. reject score %.2f", approveScore, rejectScore)
}

// DissentSummary renders StrongDissent as newline-joined bullets, for use
// in a Decision's reasoning text (§4.5 step 5).
func DissentSummary(dissent []Vote) string {
	if len(dissent) == 0 {
		return ""
	}
	lines := make([]string, 0, len(dissent))
	for _, v := range dissent {
		lines = append(lines, fmt.Sprintf("- %s (confidence %.2f): %s", v.Supervisor, v.Confidence, v.Comment))
	}
	return strings.Join(lines, "\n")
}
