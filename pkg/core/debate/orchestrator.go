package debate

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"autopilot/pkg/core/consensus"
	"autopilot/pkg/core/history"
	"autopilot/pkg/core/quota"
	"autopilot/pkg/core/supervisor"
	"autopilot/pkg/core/team"
)

// Config parameterizes every debate the Orchestrator runs.
type Config struct {
	Rounds        int // R, total rounds including round 1
	ConsensusMode consensus.Mode
	Threshold     float64
	SessionID     string
	Lead          string   // tried first by ChatWithFallback, ahead of FallbackOrder
	FallbackOrder []string // ordered supervisor names for ChatWithFallback
}

// Orchestrator is the long-lived debate engine (C5): it owns the
// supervisor registry, quota manager and team selector, and runs one
// debate at a time per task ID. Grounded on the teacher's
// DebateOrchestrator (per-debate state, Subscribe/broadcast, phased Run)
// fused with DebateManager's singleton active-debate tracking, since this
// engine is shared across many concurrent debates rather than
// instantiated fresh per company/fiscal-year the way the teacher did.
type Orchestrator struct {
	registry *supervisor.Registry
	quota    *quota.Manager
	selector *team.Selector
	store    history.Store // nil disables persistence
	cfg      Config

	mu     sync.Mutex
	active map[string]bool // task IDs with a debate currently running

	subMu       sync.Mutex
	subscribers []chan DebateMessage

	rng *rand.Rand // optional source for the random suffix of record IDs
}

// NewOrchestrator builds an Orchestrator. store may be nil to disable
// persistence.
func NewOrchestrator(registry *supervisor.Registry, quotaMgr *quota.Manager, selector *team.Selector, store history.Store, cfg Config) *Orchestrator {
	if cfg.Rounds <= 0 {
		cfg.Rounds = 3
	}
	return &Orchestrator{
		registry: registry,
		quota:    quotaMgr,
		selector: selector,
		store:    store,
		cfg:      cfg,
		active:   make(map[string]bool),
	}
}

// WithRNG injects the random source used for the 6-character random suffix
// of record IDs (the time-based prefix still varies); it is not required
// for production use.
func (o *Orchestrator) WithRNG(rng *rand.Rand) *Orchestrator {
	o.rng = rng
	return o
}

// Subscribe adds a client channel receiving every broadcast DebateMessage
// across all in-flight debates, mirroring the teacher's
// Subscribe/broadcast shape generalized from one debate to the whole
// engine.
func (o *Orchestrator) Subscribe() chan DebateMessage {
	ch := make(chan DebateMessage, 100)
	o.subMu.Lock()
	o.subscribers = append(o.subscribers, ch)
	o.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a previously subscribed channel.
func (o *Orchestrator) Unsubscribe(ch chan DebateMessage) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for i, sub := range o.subscribers {
		if sub == ch {
			o.subscribers = append(o.subscribers[:i], o.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (o *Orchestrator) broadcast(msg DebateMessage) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for _, ch := range o.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message if the client is too slow, to avoid blocking the debate.
		}
	}
}

// Debate runs the full state machine for task and returns a Decision.
// May suspend on network I/O (every chat() call) and on context
// cancellation produces no Decision and persists no record (§5, §7).
func (o *Orchestrator) Debate(ctx context.Context, task Task) (*Decision, error) {
	if !o.tryMarkActive(task.ID) {
		return nil, fmt.Errorf("debate: task %q already has an active debate", task.ID)
	}
	defer o.clearActive(task.ID)

	start := time.Now()

	// --- Plan ---
	detection := team.Detect(team.Task{Description: task.Description, Context: task.Context, FilesAffected: task.FilesAffected})
	available := o.registry.AvailableNames(ctx)
	selection := o.selector.SelectTeam(
		team.Task{Description: task.Description, Context: task.Context, FilesAffected: task.FilesAffected},
		available,
	)

	if len(selection.Team) == 0 {
		return o.autoApprove(task, detection), nil
	}

	weights := o.registry.WeightSnapshot()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// --- Round 1 ---
	opinions := o.runRound(ctx, task, selection.Team, 1, formatTaskPrompt(task))
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// --- Rounds 2..R ---
	for round := 2; round <= o.cfg.Rounds; round++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		roundContext := formatOpinionsBlock(round-1, opinions) + "\n" + roundSuffix
		next := o.runRound(ctx, task, selection.Team, round, roundContext)
		// A supervisor silent this round keeps its last opinion rather
		// than being dropped from the running context.
		for name, text := range next {
			if text == "[Unable to provide opinion]" {
				continue
			}
			opinions[name] = text
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// --- Vote ---
	votes := o.runVoteRound(ctx, selection.Team, o.cfg.Rounds, opinions, weights)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// --- Finalize ---
	cfg := consensus.Config{Mode: o.cfg.ConsensusMode, Threshold: o.cfg.Threshold, Lead: selection.Lead}
	if cfg.Mode == "" {
		cfg.Mode = consensus.Mode(selection.Mode)
	}
	result := consensus.Evaluate(votes, cfg)

	reasoning := buildReasoning(result, selection.Lead)
	if allVotesFailed(votes) {
		reasoning = "all supervisors unreachable: " + reasoning
	}

	decision := &Decision{
		ID:                       newDebateID(o.rng),
		TaskID:                   task.ID,
		TaskDescription:          task.Description,
		TaskType:                 string(detection.Type),
		Approved:                 result.Approved,
		Consensus:                result.SimpleConsensus,
		WeightedConsensus:        result.WeightedConsensus,
		ConsensusMode:            cfg.Mode,
		Votes:                    votes,
		Reasoning:                reasoning,
		SupervisorCount:          len(selection.Team),
		ParticipatingSupervisors: selection.Team,
		DurationMs:               time.Since(start).Milliseconds(),
		SessionID:                o.cfg.SessionID,
		Timestamp:                time.Now(),
	}

	o.broadcast(SystemMessage(task.ID, "Debate completed."))
	o.persist(ctx, decision)

	return decision, nil
}

func (o *Orchestrator) persist(ctx context.Context, decision *Decision) {
	if o.store == nil {
		return
	}
	record := history.Record{
		ID:                       decision.ID,
		Timestamp:                decision.Timestamp,
		TaskID:                   decision.TaskID,
		TaskDescription:          decision.TaskDescription,
		Approved:                 decision.Approved,
		Consensus:                decision.Consensus,
		WeightedConsensus:        decision.WeightedConsensus,
		ConsensusMode:            string(decision.ConsensusMode),
		SupervisorCount:          decision.SupervisorCount,
		ParticipatingSupervisors: decision.ParticipatingSupervisors,
		DurationMs:               decision.DurationMs,
		SessionID:                decision.SessionID,
		TaskType:                 decision.TaskType,
	}
	// Detach from a possibly-canceled ctx, mirroring the teacher's use of
	// context.Background() in broadcast's async persist goroutine.
	persistCtx := ctx
	if ctx.Err() != nil {
		persistCtx = context.Background()
	}
	if err := o.store.Save(persistCtx, record); err != nil {
		fmt.Printf("debate: error persisting record %s: %v\n", decision.ID, err)
	}
}

func (o *Orchestrator) tryMarkActive(taskID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[taskID] {
		return false
	}
	o.active[taskID] = true
	return true
}

func (o *Orchestrator) clearActive(taskID string) {
	o.mu.Lock()
	delete(o.active, taskID)
	o.mu.Unlock()
}

// autoApprove implements the deliberate zero-supervisor policy: the
// council never blocks when nothing can speak.
func (o *Orchestrator) autoApprove(task Task, detection team.Detection) *Decision {
	o.broadcast(SystemMessage(task.ID, "No supervisors available — auto-approving"))
	return &Decision{
		ID:              newDebateID(o.rng),
		TaskID:          task.ID,
		TaskDescription: task.Description,
		TaskType:        string(detection.Type),
		Approved:        true,
		Consensus:       1.0,
		Reasoning:       "No supervisors available — auto-approving",
		SessionID:       o.cfg.SessionID,
		Timestamp:       time.Now(),
	}
}

// runRound issues chat() to every supervisor in teamNames in parallel and
// collects {name, text} pairs, replacing failures with a stub so one
// flaky supervisor cannot halt the debate (§4.5 step 2/3).
func (o *Orchestrator) runRound(ctx context.Context, task Task, teamNames []string, round int, userMessage string) map[string]string {
	o.broadcast(SystemMessage(task.ID, fmt.Sprintf("--- Round %d ---", round)))

	type turnResult struct {
		name string
		text string
	}
	results := make(chan turnResult, len(teamNames))
	var wg sync.WaitGroup
	for _, name := range teamNames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			text := o.chat(ctx, name, []supervisor.Message{
				{Role: supervisor.RoleUser, Content: userMessage},
			})
			if text == "" {
				text = "[Unable to provide opinion]"
			}
			results <- turnResult{name: name, text: text}
		}(name)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	opinions := make(map[string]string, len(teamNames))
	for r := range results {
		opinions[r.name] = r.text
		o.broadcast(DebateMessage{
			ID: newMessageID(), TaskID: task.ID, Round: round,
			SupervisorName: r.name, Content: r.text, Timestamp: time.Now(),
		})
	}
	return opinions
}

// runVoteRound issues the canonical vote prompt in parallel and parses
// each reply, recording a synthetic failed vote for anyone whose chat
// call did not succeed (§4.5 step 4, §7).
func (o *Orchestrator) runVoteRound(ctx context.Context, teamNames []string, lastRound int, opinions map[string]string, weights map[string]float64) []consensus.Vote {
	discussion := formatOpinionsBlock(lastRound, opinions)

	results := make(chan consensus.Vote, len(teamNames))
	var wg sync.WaitGroup
	for _, name := range teamNames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			text := o.chat(ctx, name, []supervisor.Message{
				{Role: supervisor.RoleUser, Content: discussion + "\n" + votePrompt},
			})
			var v consensus.Vote
			if text == "" {
				v = failedVote(name)
			} else {
				v = parseVote(name, text)
			}
			w, ok := weights[name]
			if !ok {
				w = 1.0
			}
			v.Weight = w
			results <- v
		}(name)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var votes []consensus.Vote
	for v := range results {
		votes = append(votes, v)
	}
	return votes
}

// chat wraps a single supervisor call with quota admission and
// accounting (§4.5 "Quota integration"): a denial counts as a failure for
// this call without blocking, a success is recorded, a rate-limit
// failure triggers a throttle.
func (o *Orchestrator) chat(ctx context.Context, name string, messages []supervisor.Message) string {
	sv, ok := o.registry.Get(name)
	if !ok {
		return ""
	}

	decision := o.quota.Check(sv.Provider())
	if !decision.Allowed {
		return ""
	}
	o.quota.Start(sv.Provider())

	start := time.Now()
	text, err := sv.Chat(ctx, messages)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		if supervisor.IsRateLimited(err) {
			o.quota.RecordRateLimitError(sv.Provider())
		} else {
			o.quota.Record(sv.Provider(), 0, latency, false)
		}
		return ""
	}

	o.quota.Record(sv.Provider(), estimateTokens(text), latency, true)
	return text
}

// estimateTokens gives a rough token count for accounting purposes when
// a provider's response does not carry real usage metadata (none of the
// hand-rolled HTTP supervisors here parse a usage block, matching the
// teacher's providers which also discard it).
func estimateTokens(text string) int {
	return len(text) / 4
}

// ChatWithFallback tries the lead supervisor, then each name in
// FallbackOrder in turn, then any available supervisor — for single-query
// calls outside a debate (§4.5 "Fallback chain").
func (o *Orchestrator) ChatWithFallback(ctx context.Context, messages []supervisor.Message) (string, string) {
	var candidates []string
	if o.cfg.Lead != "" {
		candidates = append(candidates, o.cfg.Lead)
	}
	candidates = append(candidates, o.cfg.FallbackOrder...)
	candidates = append(candidates, o.registry.AvailableNames(ctx)...)

	tried := make(map[string]bool)
	for _, name := range candidates {
		if tried[name] {
			continue
		}
		tried[name] = true
		sv, ok := o.registry.Get(name)
		if !ok || !sv.Available(ctx) {
			continue
		}
		if text := o.chat(ctx, name, messages); text != "" {
			return text, name
		}
	}
	return "", ""
}

// allVotesFailed reports whether every ballot is the synthetic failedVote
// stub, i.e. no supervisor's chat call succeeded during the vote round
// (§7: "all supervisors failed voting").
func allVotesFailed(votes []consensus.Vote) bool {
	if len(votes) == 0 {
		return false
	}
	for _, v := range votes {
		if v.Comment != "Failed to vote" {
			return false
		}
	}
	return true
}

func buildReasoning(result consensus.Result, lead string) string {
	reasoning := result.Reasoning
	if lead != "" {
		reasoning += fmt.Sprintf(" (lead: %s)", lead)
	}
	if dissent := consensus.DissentSummary(result.StrongDissent); dissent != "" {
		reasoning += "\n\nStrong dissent:\n" + dissent
	}
	return reasoning
}
