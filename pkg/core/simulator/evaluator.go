package simulator

import "autopilot/pkg/core/consensus"

// evaluateRound applies one of the simulator's five lightweight
// per-round outcome rules (§4.7), distinct from C4's full Evaluate:
// these only classify approved|rejected|deadlock|continue to decide
// whether a replay or simulation should keep going.
func evaluateRound(votes []consensus.Vote, mode consensus.Mode) RoundOutcome {
	switch mode {
	case consensus.ModeUnanimous:
		return evalUnanimousRound(votes)
	case consensus.ModeSupermajority:
		return evalThresholdRound(votes, 0.67)
	case consensus.ModeWeighted:
		return evalWeightedRound(votes)
	case consensus.ModeCEOVeto:
		return evalVetoRound(votes)
	default:
		return evalMajorityRound(votes)
	}
}

func tally(votes []consensus.Vote) (approve, reject int) {
	for _, v := range votes {
		if v.Approved {
			approve++
		} else {
			reject++
		}
	}
	return
}

func evalMajorityRound(votes []consensus.Vote) RoundOutcome {
	if len(votes) == 0 {
		return OutcomeContinue
	}
	approve, reject := tally(votes)
	total := approve + reject
	if float64(approve) > float64(total)/2 {
		return OutcomeApproved
	}
	if float64(reject) > float64(total)/2 {
		return OutcomeRejected
	}
	return OutcomeDeadlock
}

func evalThresholdRound(votes []consensus.Vote, threshold float64) RoundOutcome {
	if len(votes) == 0 {
		return OutcomeContinue
	}
	approve, reject := tally(votes)
	total := approve + reject
	if float64(approve)/float64(total) >= threshold {
		return OutcomeApproved
	}
	if float64(reject)/float64(total) > (1 - threshold) {
		return OutcomeRejected
	}
	return OutcomeContinue
}

func evalUnanimousRound(votes []consensus.Vote) RoundOutcome {
	if len(votes) == 0 {
		return OutcomeContinue
	}
	approve, reject := tally(votes)
	if reject == 0 {
		return OutcomeApproved
	}
	if approve == 0 {
		return OutcomeRejected
	}
	return OutcomeDeadlock
}

func evalWeightedRound(votes []consensus.Vote) RoundOutcome {
	if len(votes) == 0 {
		return OutcomeContinue
	}
	var approveWeight, rejectWeight float64
	for _, v := range votes {
		w := v.Weight
		if w == 0 {
			w = 1.0
		}
		if v.Approved {
			approveWeight += w
		} else {
			rejectWeight += w
		}
	}
	total := approveWeight + rejectWeight
	if total == 0 {
		return OutcomeContinue
	}
	if approveWeight/total > 0.6 {
		return OutcomeApproved
	}
	if rejectWeight/total > 0.6 {
		return OutcomeRejected
	}
	return OutcomeContinue
}

func evalVetoRound(votes []consensus.Vote) RoundOutcome {
	for _, v := range votes {
		if !v.Approved && v.Confidence > 0.9 {
			return OutcomeRejected
		}
	}
	return evalMajorityRound(votes)
}
