// Package consensus implements the eight vote-aggregation rules a debate
// can be configured to use, grounded on the weighted-voting shape found in
// the other_examples HelixAgent orchestrator reference material, expressed
// in the teacher's plain-struct-and-function style.
package consensus

// Mode is one of the eight wire-visible consensus mode strings.
type Mode string

const (
	ModeSimpleMajority    Mode = "simple-majority"
	ModeSupermajority     Mode = "supermajority"
	ModeUnanimous         Mode = "unanimous"
	ModeWeighted          Mode = "weighted"
	ModeCEOOverride       Mode = "ceo-override"
	ModeCEOVeto           Mode = "ceo-veto"
	ModeHybridCEOMajority Mode = "hybrid-ceo-majority"
	ModeRankedChoice      Mode = "ranked-choice"
)

// Vote is one supervisor's final ballot.
type Vote struct {
	Supervisor string
	Approved   bool
	Confidence float64
	Comment    string
	Weight     float64
}

// Config parameterizes evaluation.
type Config struct {
	Mode      Mode
	Threshold float64 // default 0.5, used by simple-majority and weighted
	Lead      string  // lead supervisor name, used by ceo-* modes
}

// Result is the outcome of evaluating a vote list under a Config.
type Result struct {
	Approved           bool
	Reasoning          string
	SimpleConsensus    float64 // approvals / total
	WeightedConsensus  float64 // always computed regardless of Mode, for observability
	StrongDissent      []Vote  // rejecting votes with confidence > 0.7
}
