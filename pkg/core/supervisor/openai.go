package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// OpenAISupervisor speaks the OpenAI Chat Completions wire shape over plain
// net/http (grounded on the teacher's hand-rolled DashScope/DeepSeek calls,
// adapted to the OpenAI envelope). Any provider exposing this same shape at
// a different base URL is handled by CustomSupervisor instead.
type OpenAISupervisor struct {
	name    string
	model   string
	apiKey  string
	baseURL string
}

var _ Supervisor = (*OpenAISupervisor)(nil)

// NewOpenAISupervisor builds an OpenAI-backed supervisor. apiKey falls back
// to OPENAI_API_KEY, model to "gpt-4o-mini".
func NewOpenAISupervisor(name, model, apiKey string) *OpenAISupervisor {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAISupervisor{name: name, model: model, apiKey: apiKey, baseURL: "https://api.openai.com/v1"}
}

func (s *OpenAISupervisor) Name() string     { return s.name }
func (s *OpenAISupervisor) Provider() string { return "openai" }

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func toCompletionMessages(messages []Message) []chatCompletionMessage {
	out := make([]chatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func (s *OpenAISupervisor) Chat(ctx context.Context, messages []Message) (string, error) {
	if s.apiKey == "" {
		return "", &SupervisorError{Op: "chat", Provider: "openai", Retryable: false,
			Err: fmt.Errorf("OPENAI_API_KEY not set")}
	}

	reqBody := chatCompletionRequest{
		Model:       s.model,
		Messages:    toCompletionMessages(messages),
		Temperature: 0.2,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &SupervisorError{Op: "chat", Provider: "openai", Retryable: false, Err: err}
	}

	var resp chatCompletionResponse
	headers := map[string]string{"Authorization": "Bearer " + s.apiKey}
	if err := doJSONChat(ctx, s.baseURL+"/chat/completions", headers, payload, &resp); err != nil {
		return "", &SupervisorError{Op: "chat", Provider: "openai", Retryable: isRetryableHTTPLike(err), Err: err}
	}
	if resp.Error != nil {
		return "", &SupervisorError{Op: "chat", Provider: "openai", Retryable: false,
			Err: fmt.Errorf("%s", resp.Error.Message)}
	}
	if len(resp.Choices) == 0 {
		return "", &SupervisorError{Op: "chat", Provider: "openai", Retryable: true,
			Err: fmt.Errorf("empty choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAISupervisor) Available(ctx context.Context) bool {
	return s.apiKey != ""
}
