package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists debate records to a `debate_records` table,
// grounded on pkg/core/store's pgxpool-backed repos (NotesRepo's
// parameterized INSERT/QueryRow shape), adapted from SEC filing notes to
// debate outcomes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-initialized pool; creating and
// configuring the pool is left to the caller.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS debate_records (
	id TEXT PRIMARY KEY,
	ts TIMESTAMPTZ NOT NULL,
	task_id TEXT NOT NULL,
	task_description TEXT NOT NULL,
	approved BOOLEAN NOT NULL,
	consensus DOUBLE PRECISION NOT NULL,
	weighted_consensus DOUBLE PRECISION NOT NULL,
	consensus_mode TEXT NOT NULL,
	supervisor_count INTEGER NOT NULL,
	participating_supervisors TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	session_id TEXT NOT NULL,
	task_type TEXT NOT NULL
)`

// EnsureSchema creates the backing table if it does not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("history: postgres pool not configured")
	}
	_, err := s.pool.Exec(ctx, createTableSQL)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, r Record) error {
	if s.pool == nil {
		return fmt.Errorf("history: postgres pool not configured")
	}
	query := `
		INSERT INTO debate_records (
			id, ts, task_id, task_description, approved, consensus,
			weighted_consensus, consensus_mode, supervisor_count,
			participating_supervisors, duration_ms, session_id, task_type
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query,
		r.ID, r.Timestamp, r.TaskID, r.TaskDescription, r.Approved, r.Consensus,
		r.WeightedConsensus, r.ConsensusMode, r.SupervisorCount,
		strings.Join(r.ParticipatingSupervisors, ","), r.DurationMs, r.SessionID, r.TaskType,
	)
	if err != nil {
		return fmt.Errorf("history: save record %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]Record, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("history: postgres pool not configured")
	}
	where, args := buildWhere(q.Filter)
	order := orderClause(q)

	sql := fmt.Sprintf(`
		SELECT id, ts, task_id, task_description, approved, consensus,
		       weighted_consensus, consensus_mode, supervisor_count,
		       participating_supervisors, duration_ms, session_id, task_type
		FROM debate_records %s %s`, where, order)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var supervisors string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.TaskID, &r.TaskDescription, &r.Approved,
			&r.Consensus, &r.WeightedConsensus, &r.ConsensusMode, &r.SupervisorCount,
			&supervisors, &r.DurationMs, &r.SessionID, &r.TaskType); err != nil {
			return nil, fmt.Errorf("history: scan record: %w", err)
		}
		if supervisors != "" {
			r.ParticipatingSupervisors = strings.Split(supervisors, ",")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context, f Filter) (Stats, error) {
	records, err := s.Query(ctx, Query{Filter: f})
	if err != nil {
		return Stats{}, err
	}
	return computeStats(records), nil
}

func (s *PostgresStore) ExportCSV(ctx context.Context, q Query) (string, error) {
	records, err := s.Query(ctx, q)
	if err != nil {
		return "", err
	}
	return recordsToCSV(records)
}

func (s *PostgresStore) ExportJSON(ctx context.Context, q Query) (string, error) {
	records, err := s.Query(ctx, q)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("history: marshal export: %w", err)
	}
	return string(data), nil
}

func (s *PostgresStore) Prune(ctx context.Context, retentionDays int, maxRecords int) (int, error) {
	if s.pool == nil {
		return 0, fmt.Errorf("history: postgres pool not configured")
	}
	var deleted int
	if retentionDays > 0 {
		tag, err := s.pool.Exec(ctx,
			`DELETE FROM debate_records WHERE ts < NOW() - ($1 || ' days')::INTERVAL`, strconv.Itoa(retentionDays))
		if err != nil {
			return deleted, fmt.Errorf("history: prune by age: %w", err)
		}
		deleted += int(tag.RowsAffected())
	}
	if maxRecords > 0 {
		tag, err := s.pool.Exec(ctx, `
			DELETE FROM debate_records WHERE id IN (
				SELECT id FROM debate_records ORDER BY ts DESC OFFSET $1
			)`, maxRecords)
		if err != nil {
			return deleted, fmt.Errorf("history: prune by count: %w", err)
		}
		deleted += int(tag.RowsAffected())
	}
	return deleted, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func buildWhere(f Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.SessionID != "" {
		add("session_id = $%d", f.SessionID)
	}
	if f.TaskType != "" {
		add("task_type = $%d", f.TaskType)
	}
	if f.ApprovedOnly {
		clauses = append(clauses, "approved = true")
	}
	if f.RejectedOnly {
		clauses = append(clauses, "approved = false")
	}
	if !f.Since.IsZero() {
		add("ts >= $%d", f.Since)
	}
	if !f.Until.IsZero() {
		add("ts <= $%d", f.Until)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(q Query) string {
	col := "ts"
	switch q.Sort {
	case SortByConsensus:
		col = "consensus"
	case SortByDurationMs:
		col = "duration_ms"
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", col, dir)
}

func recordsToCSV(records []Record) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	header := []string{"id", "timestamp", "task_id", "task_description", "approved",
		"consensus", "weighted_consensus", "consensus_mode", "supervisor_count",
		"participating_supervisors", "duration_ms", "session_id", "task_type"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range records {
		row := []string{
			r.ID, r.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"), r.TaskID, r.TaskDescription,
			strconv.FormatBool(r.Approved), strconv.FormatFloat(r.Consensus, 'f', 4, 64),
			strconv.FormatFloat(r.WeightedConsensus, 'f', 4, 64), r.ConsensusMode,
			strconv.Itoa(r.SupervisorCount), strings.Join(r.ParticipatingSupervisors, ";"),
			strconv.FormatInt(r.DurationMs, 10), r.SessionID, r.TaskType,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func computeStats(records []Record) Stats {
	st := Stats{ByTaskType: map[string]int{}, ByConsensusMode: map[string]int{}}
	var consensusSum, durationSum float64
	for _, r := range records {
		st.Total++
		if r.Approved {
			st.ApprovedCount++
		} else {
			st.RejectedCount++
		}
		consensusSum += r.Consensus
		durationSum += float64(r.DurationMs)
		st.ByTaskType[r.TaskType]++
		st.ByConsensusMode[r.ConsensusMode]++
	}
	if st.Total > 0 {
		st.AverageConsensus = consensusSum / float64(st.Total)
		st.AverageDurationMs = durationSum / float64(st.Total)
	}
	return st
}
