// Package history persists completed debate records and answers queries
// over them (filters, sort, pagination, aggregate stats, CSV/JSON
// export, retention pruning). Grounded on the teacher's pkg/core/store
// (pgxpool singleton) and debate.DebateRepo persistence shape, with a
// second JSON-file-backed implementation for installs with no database.
package history

import (
	"context"
	"time"
)

// Record is one completed debate's durable summary, matching the
// DebateRecord export CSV header fixed order from §6.
type Record struct {
	ID                       string    `json:"id"`
	Timestamp                time.Time `json:"timestamp"`
	TaskID                   string    `json:"task_id"`
	TaskDescription          string    `json:"task_description"`
	Approved                 bool      `json:"approved"`
	Consensus                float64   `json:"consensus"`
	WeightedConsensus        float64   `json:"weighted_consensus"`
	ConsensusMode            string    `json:"consensus_mode"`
	SupervisorCount          int       `json:"supervisor_count"`
	ParticipatingSupervisors []string  `json:"participating_supervisors"`
	DurationMs               int64     `json:"duration_ms"`
	SessionID                string    `json:"session_id"`
	TaskType                 string    `json:"task_type"`
}

// Filter narrows a Query's result set. Zero values are "no constraint".
type Filter struct {
	SessionID     string
	TaskType      string
	ApprovedOnly  bool
	RejectedOnly  bool
	Since         time.Time
	Until         time.Time
}

// SortField selects the Query ordering column.
type SortField string

const (
	SortByTimestamp  SortField = "timestamp"
	SortByConsensus  SortField = "consensus"
	SortByDurationMs SortField = "duration_ms"
)

// Query parameterizes Store.Query.
type Query struct {
	Filter    Filter
	Sort      SortField
	Descending bool
	Offset    int
	Limit     int // 0 = unbounded
}

// Stats summarizes a set of records for observability/dashboards.
type Stats struct {
	Total            int
	ApprovedCount    int
	RejectedCount    int
	AverageConsensus float64
	AverageDurationMs float64
	ByTaskType       map[string]int
	ByConsensusMode  map[string]int
}

// Store is the persistence abstraction for debate records (C6).
type Store interface {
	Save(ctx context.Context, record Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Stats(ctx context.Context, f Filter) (Stats, error)
	ExportCSV(ctx context.Context, q Query) (string, error)
	ExportJSON(ctx context.Context, q Query) (string, error)
	Prune(ctx context.Context, retentionDays int, maxRecords int) (int, error)
	Close() error
}
