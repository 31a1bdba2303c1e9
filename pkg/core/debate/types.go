// Package debate implements the multi-supervisor review engine: planning
// a team, running rounds of opinion exchange, collecting votes and
// applying a consensus rule to produce a Decision. Grounded on the
// teacher's pkg/core/debate orchestrator, generalized from a single
// finance-debate workflow to a provider-agnostic review council.
package debate

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"autopilot/pkg/core/consensus"
)

// Task is a unit of work submitted for multi-supervisor review.
type Task struct {
	ID            string
	Description   string
	Context       string
	FilesAffected []string
}

// Status is the debate state machine's current state (§4.5).
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlan     Status = "plan"
	StatusRound    Status = "round"
	StatusVote     Status = "vote"
	StatusFinalize Status = "finalize"
	StatusDone     Status = "done"
	StatusAborted  Status = "aborted"
)

// DebateMessage is one round-tagged message in the debate transcript,
// generalized from the teacher's DebateMessage (AgentRole/AgentName
// collapsed to a single SupervisorName, since every speaker here is a
// supervisor or the system, not a fixed finance persona).
type DebateMessage struct {
	ID             string    `json:"id"`
	TaskID         string    `json:"task_id"`
	Round          int       `json:"round"`
	SupervisorName string    `json:"supervisor_name"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	IsSystem       bool      `json:"is_system,omitempty"`
}

// SystemMessage builds a moderator-authored message, mirroring the
// teacher's SystemMessage helper.
func SystemMessage(taskID, content string) DebateMessage {
	return DebateMessage{
		ID:        newMessageID(),
		TaskID:    taskID,
		Content:   content,
		Timestamp: time.Now(),
		IsSystem:  true,
	}
}

func newMessageID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// Decision is the outcome of a completed (or auto-approved) debate.
type Decision struct {
	ID                       string
	TaskID                   string
	TaskDescription          string
	TaskType                 string
	Approved                 bool
	Consensus                float64
	WeightedConsensus        float64
	ConsensusMode            consensus.Mode
	Votes                    []consensus.Vote
	Reasoning                string
	SupervisorCount          int
	ParticipatingSupervisors []string
	DurationMs               int64
	SessionID                string
	Timestamp                time.Time
}

// newDebateID mints a record identifier in the §6 format:
// debate_{base36(now)}_{6-char base36 random}.
func newDebateID(rng *rand.Rand) string {
	return fmt.Sprintf("debate_%s_%s", base36(time.Now().UnixNano()), randomBase36(rng, 6))
}

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func base36(n int64) string {
	if n == 0 {
		return "0"
	}
	var sb strings.Builder
	for n > 0 {
		sb.WriteByte(base36Alphabet[n%36])
		n /= 36
	}
	s := sb.String()
	// reverse
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func randomBase36(rng *rand.Rand, n int) string {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = base36Alphabet[rng.Intn(36)]
	}
	return string(b)
}
