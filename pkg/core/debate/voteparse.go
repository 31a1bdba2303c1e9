package debate

import (
	"regexp"
	"strconv"
	"strings"

	"autopilot/pkg/core/consensus"
	"autopilot/pkg/core/utils"
)

// jsonVote is the schema SmartParse is tried against when a reply looks
// like a JSON object instead of the canonical VOTE:/CONFIDENCE:/REASONING:
// text — some providers over-follow instructions and answer in JSON.
type jsonVote struct {
	Vote       string  `json:"vote"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

var (
	voteMarkerRe      = regexp.MustCompile(`(?i)VOTE:\s*(APPROVE|REJECT)`)
	confidenceExactRe = regexp.MustCompile(`(?i)CONFIDENCE:\s*([\d.]+)`)
	confidenceLooseRe = regexp.MustCompile(`(?i)confidence[:\s]+(\d+(\.\d+)?)`)
	reasoningRe       = regexp.MustCompile(`(?is)REASONING:\s*(.*)`)

	approveWords = []string{"APPROVE", "APPROVED", "ACCEPT", "ACCEPTED", "LGTM"}
	rejectWords  = []string{"REJECT", "REJECTED", "DENY", "DENIED"}
)

// parseVote applies the tolerant parsing scheme from §4.5: canonical
// VOTE:/CONFIDENCE:/REASONING: markers first, then a word-match heuristic
// with anti-ambiguity, defaulting to reject when nothing matches.
// Input is first run through CleanMarkdown to tolerate a model wrapping
// its reply in a code fence; a reply that then starts with "{" is tried
// as a JSON vote via SmartParse before the marker and word-match ladder.
func parseVote(supervisorName, reply string) consensus.Vote {
	text := utils.CleanMarkdown(reply)

	if v, ok := parseJSONVote(text); ok {
		return consensus.Vote{
			Supervisor: supervisorName,
			Approved:   v.Approved,
			Confidence: v.Confidence,
			Comment:    v.Comment,
		}
	}

	upper := strings.ToUpper(text)

	approved := parseApproval(upper)
	confidence := parseConfidence(text)
	comment := parseReasoning(text)
	if comment == "" {
		comment = text
	}

	return consensus.Vote{
		Supervisor: supervisorName,
		Approved:   approved,
		Confidence: confidence,
		Comment:    comment,
	}
}

// parseJSONVote tries SmartParse against jsonVote when the reply looks like
// a JSON object rather than the canonical marker text. It returns ok=false
// for any non-JSON-shaped reply so the regex ladder stays the default path.
func parseJSONVote(text string) (consensus.Vote, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return consensus.Vote{}, false
	}

	var jv jsonVote
	if _, err := utils.SmartParse(trimmed, &jv); err != nil {
		return consensus.Vote{}, false
	}
	if jv.Vote == "" {
		return consensus.Vote{}, false
	}

	confidence := jv.Confidence
	if confidence > 1 {
		confidence = confidence / 100
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	if confidence == 0 {
		confidence = 0.7
	}

	return consensus.Vote{
		Approved:   strings.EqualFold(jv.Vote, "APPROVE") || strings.EqualFold(jv.Vote, "APPROVED"),
		Confidence: confidence,
		Comment:    jv.Reasoning,
	}, true
}

func parseApproval(upper string) bool {
	if m := voteMarkerRe.FindStringSubmatch(upper); m != nil {
		return strings.EqualFold(m[1], "APPROVE")
	}

	hasApprove := containsAny(upper, approveWords)
	hasReject := containsAny(upper, rejectWords)
	if hasApprove && !hasReject {
		return true
	}
	if hasReject && !hasApprove {
		return false
	}
	return false // default reject — ambiguous or no marker at all
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func parseConfidence(text string) float64 {
	var raw string
	if m := confidenceExactRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if m := confidenceLooseRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else {
		return 0.7
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0.7
	}
	if val > 1 {
		val = val / 100
	}
	if val < 0 {
		val = 0
	}
	if val > 1 {
		val = 1
	}
	return val
}

func parseReasoning(text string) string {
	if m := reasoningRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// failedVote is the synthetic ballot recorded when a supervisor's chat
// call fails during the vote step (§7: "all supervisors failed voting").
func failedVote(supervisorName string) consensus.Vote {
	return consensus.Vote{
		Supervisor: supervisorName,
		Approved:   false,
		Confidence: 0.5,
		Comment:    "Failed to vote",
	}
}
