// Command autopilot wires the council together and runs one of its
// entrypoints from the command line: a single multi-supervisor debate,
// a one-off question through the fallback chain, or a query against the
// persisted debate history. Transport (HTTP,
// WebSocket) is explicitly out of scope for the core; this is the thin
// CLI shell the teacher's cmd/api played for its own domain.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"autopilot/pkg/core/consensus"
	"autopilot/pkg/core/debate"
	"autopilot/pkg/core/history"
	"autopilot/pkg/core/quota"
	"autopilot/pkg/core/supervisor"
	"autopilot/pkg/core/team"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "debate":
		runDebate(os.Args[2:])
	case "ask":
		runAsk(os.Args[2:])
	case "history":
		runHistory(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: autopilot <debate|ask|history> [flags]")
}

// buildRegistry registers one supervisor per provider that has an API key
// configured in the environment, following the {PROVIDER}_API_KEY /
// {PROVIDER}_MODEL convention from §6.
func buildRegistry() *supervisor.Registry {
	reg := supervisor.NewRegistry()

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		reg.Register(supervisor.NewOpenAISupervisor("openai", os.Getenv("OPENAI_MODEL"), key))
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		reg.Register(supervisor.NewAnthropicSupervisor("anthropic", os.Getenv("ANTHROPIC_MODEL"), key))
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		reg.Register(supervisor.NewGeminiSupervisor("gemini", os.Getenv("GEMINI_MODEL"), key))
	}

	for _, p := range []string{"deepseek", "grok-xai", "qwen", "kimi-moonshot"} {
		envPrefix := strings.ToUpper(strings.ReplaceAll(p, "-", "_"))
		if key := os.Getenv(envPrefix + "_API_KEY"); key != "" {
			reg.Register(supervisor.NewCustomSupervisor(p, p, customBaseURL(p), os.Getenv(envPrefix+"_MODEL"), key))
		}
	}

	return reg
}

// customBaseURL returns the default OpenAI-compatible endpoint for each
// custom provider tag (overridable with an explicit _BASE_URL env var).
func customBaseURL(provider string) string {
	envPrefix := strings.ToUpper(strings.ReplaceAll(provider, "-", "_"))
	if url := os.Getenv(envPrefix + "_BASE_URL"); url != "" {
		return url
	}
	switch provider {
	case "deepseek":
		return "https://api.deepseek.com/v1"
	case "grok-xai":
		return "https://api.x.ai/v1"
	case "qwen":
		return "https://dashscope.aliyuncs.com/compatible-mode/v1"
	case "kimi-moonshot":
		return "https://api.moonshot.cn/v1"
	default:
		return ""
	}
}

func runDebate(args []string) {
	fs := flag.NewFlagSet("debate", flag.ExitOnError)
	description := fs.String("description", "", "task description")
	contextText := fs.String("context", "", "supporting code context")
	rounds := fs.Int("rounds", 3, "number of debate rounds")
	mode := fs.String("mode", "weighted", "consensus mode")
	sessionID := fs.String("session", "cli", "session id recorded on the history record")
	historyPath := fs.String("history-path", "debate-history.json", "JSON history store path (empty disables persistence)")
	fs.Parse(args)

	if *description == "" {
		fmt.Fprintln(os.Stderr, "debate: -description is required")
		os.Exit(1)
	}

	reg := buildRegistry()
	quotaMgr := quota.NewManager()
	selector := team.NewSelector()

	var store history.Store
	if *historyPath != "" {
		s, err := history.NewJSONStore(*historyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "debate: failed to open history store: %v\n", err)
			os.Exit(1)
		}
		store = s
		defer s.Close()
	}

	orch := debate.NewOrchestrator(reg, quotaMgr, selector, store, debate.Config{
		Rounds:        *rounds,
		ConsensusMode: consensus.Mode(*mode),
		Threshold:     0.5,
		SessionID:     *sessionID,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	task := debate.Task{
		ID:          fmt.Sprintf("cli-%d", time.Now().UnixNano()),
		Description: *description,
		Context:     *contextText,
	}

	decision, err := orch.Debate(ctx, task)
	if err != nil {
		fmt.Fprintf(os.Stderr, "debate: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("approved=%v consensus=%.2f weighted_consensus=%.2f mode=%s\n",
		decision.Approved, decision.Consensus, decision.WeightedConsensus, decision.ConsensusMode)
	fmt.Println(decision.Reasoning)
}

// runAsk sends a single prompt through the fallback chain (lead, then
// -fallback order, then any available supervisor) instead of running a
// full debate — for one-off questions that don't need a vote.
func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	prompt := fs.String("prompt", "", "message to send")
	lead := fs.String("lead", "", "supervisor tried first")
	fallback := fs.String("fallback", "", "comma-separated fallback order, tried after -lead")
	fs.Parse(args)

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "ask: -prompt is required")
		os.Exit(1)
	}

	var fallbackOrder []string
	if *fallback != "" {
		fallbackOrder = strings.Split(*fallback, ",")
	}

	reg := buildRegistry()
	quotaMgr := quota.NewManager()
	selector := team.NewSelector()
	orch := debate.NewOrchestrator(reg, quotaMgr, selector, nil, debate.Config{
		Lead:          *lead,
		FallbackOrder: fallbackOrder,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	text, answeredBy := orch.ChatWithFallback(ctx, []supervisor.Message{
		{Role: supervisor.RoleUser, Content: *prompt},
	})
	if answeredBy == "" {
		fmt.Fprintln(os.Stderr, "ask: every supervisor was unreachable")
		os.Exit(1)
	}

	fmt.Printf("answered-by=%s\n", answeredBy)
	fmt.Println(text)
}

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	historyPath := fs.String("history-path", "debate-history.json", "JSON history store path")
	export := fs.String("export", "", "export format: json or csv (empty prints stats)")
	fs.Parse(args)

	store, err := history.NewJSONStore(*historyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	q := history.Query{Sort: history.SortByTimestamp, Descending: true}

	switch *export {
	case "csv":
		out, err := store.ExportCSV(ctx, q)
		if err != nil {
			fmt.Fprintf(os.Stderr, "history: export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
	case "json":
		out, err := store.ExportJSON(ctx, q)
		if err != nil {
			fmt.Fprintf(os.Stderr, "history: export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
	default:
		stats, err := store.Stats(ctx, history.Filter{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "history: stats failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("total=%d approved=%d rejected=%d avg_consensus=%.2f avg_duration_ms=%.0f\n",
			stats.Total, stats.ApprovedCount, stats.RejectedCount, stats.AverageConsensus, stats.AverageDurationMs)
	}
}
