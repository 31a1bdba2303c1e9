package supervisor

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// GeminiSupervisor speaks to Google's Gemini models through the official
// GenAI SDK client. Model defaults to "gemini-2.0-flash-exp" when unset.
type GeminiSupervisor struct {
	name   string
	model  string
	apiKey string
}

var _ Supervisor = (*GeminiSupervisor)(nil)

// NewGeminiSupervisor builds a Gemini-backed supervisor. apiKey falls back
// to the GEMINI_API_KEY environment variable when empty.
func NewGeminiSupervisor(name, model, apiKey string) *GeminiSupervisor {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}
	return &GeminiSupervisor{name: name, model: model, apiKey: apiKey}
}

func (s *GeminiSupervisor) Name() string     { return s.name }
func (s *GeminiSupervisor) Provider() string { return "gemini" }

func (s *GeminiSupervisor) Chat(ctx context.Context, messages []Message) (string, error) {
	if s.apiKey == "" {
		return "", &SupervisorError{Op: "chat", Provider: "gemini", Retryable: false,
			Err: fmt.Errorf("GEMINI_API_KEY not set")}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", &SupervisorError{Op: "chat", Provider: "gemini", Retryable: true,
			Err: fmt.Errorf("create client: %w", err)}
	}

	var system string
	var turns []string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		default:
			turns = append(turns, m.Content)
		}
	}
	prompt := ""
	if len(turns) > 0 {
		prompt = turns[len(turns)-1]
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), config)
	if err != nil {
		return "", &SupervisorError{Op: "chat", Provider: "gemini", Retryable: isRetryableHTTPLike(err),
			Err: fmt.Errorf("generate content: %w", err)}
	}
	return result.Text(), nil
}

func (s *GeminiSupervisor) Available(ctx context.Context) bool {
	return s.apiKey != ""
}
