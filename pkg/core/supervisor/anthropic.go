package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// AnthropicSupervisor speaks the Anthropic Messages wire shape (separate
// system field, content returned as a block list rather than a flat
// string) — same hand-rolled HTTP posture as the teacher's DeepSeek
// provider, different envelope.
type AnthropicSupervisor struct {
	name    string
	model   string
	apiKey  string
	baseURL string
}

var _ Supervisor = (*AnthropicSupervisor)(nil)

// NewAnthropicSupervisor builds an Anthropic-backed supervisor. apiKey
// falls back to ANTHROPIC_API_KEY, model to "claude-3-5-sonnet-latest".
func NewAnthropicSupervisor(name, model, apiKey string) *AnthropicSupervisor {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	return &AnthropicSupervisor{name: name, model: model, apiKey: apiKey, baseURL: "https://api.anthropic.com/v1"}
}

func (s *AnthropicSupervisor) Name() string     { return s.name }
func (s *AnthropicSupervisor) Provider() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *AnthropicSupervisor) Chat(ctx context.Context, messages []Message) (string, error) {
	if s.apiKey == "" {
		return "", &SupervisorError{Op: "chat", Provider: "anthropic", Retryable: false,
			Err: fmt.Errorf("ANTHROPIC_API_KEY not set")}
	}

	var system string
	turns := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = m.Content
			continue
		}
		turns = append(turns, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	reqBody := anthropicRequest{
		Model:     s.model,
		System:    system,
		Messages:  turns,
		MaxTokens: 4096,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &SupervisorError{Op: "chat", Provider: "anthropic", Retryable: false, Err: err}
	}

	var resp anthropicResponse
	headers := map[string]string{
		"x-api-key":         s.apiKey,
		"anthropic-version": "2023-06-01",
	}
	if err := doJSONChat(ctx, s.baseURL+"/messages", headers, payload, &resp); err != nil {
		return "", &SupervisorError{Op: "chat", Provider: "anthropic", Retryable: isRetryableHTTPLike(err), Err: err}
	}
	if resp.Error != nil {
		return "", &SupervisorError{Op: "chat", Provider: "anthropic", Retryable: false,
			Err: fmt.Errorf("%s", resp.Error.Message)}
	}
	if len(resp.Content) == 0 {
		return "", &SupervisorError{Op: "chat", Provider: "anthropic", Retryable: true,
			Err: fmt.Errorf("empty content blocks in response")}
	}
	return resp.Content[0].Text, nil
}

func (s *AnthropicSupervisor) Available(ctx context.Context) bool {
	return s.apiKey != ""
}
