package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// CustomSupervisor covers any provider that exposes an OpenAI-compatible
// /chat/completions endpoint at a user-supplied base URL — deepseek,
// grok/xai, qwen (DashScope's OpenAI-compatible mode) and kimi/moonshot
// all fit this shape, so they are configured as CustomSupervisor instances
// rather than earning bespoke types. Env lookup follows the
// {PROVIDER}_API_KEY / {PROVIDER}_MODEL convention, PROVIDER upper-cased.
type CustomSupervisor struct {
	name     string
	provider string
	model    string
	apiKey   string
	baseURL  string
}

var _ Supervisor = (*CustomSupervisor)(nil)

// NewCustomSupervisor builds a supervisor against an OpenAI-compatible
// endpoint. apiKey and model fall back to {PROVIDER}_API_KEY and
// {PROVIDER}_MODEL when empty.
func NewCustomSupervisor(name, provider, baseURL, model, apiKey string) *CustomSupervisor {
	envPrefix := strings.ToUpper(provider)
	if apiKey == "" {
		apiKey = os.Getenv(envPrefix + "_API_KEY")
	}
	if model == "" {
		model = os.Getenv(envPrefix + "_MODEL")
	}
	return &CustomSupervisor{
		name: name, provider: provider, model: model,
		apiKey: apiKey, baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *CustomSupervisor) Name() string     { return s.name }
func (s *CustomSupervisor) Provider() string { return s.provider }

func (s *CustomSupervisor) Chat(ctx context.Context, messages []Message) (string, error) {
	if s.apiKey == "" {
		return "", &SupervisorError{Op: "chat", Provider: s.provider, Retryable: false,
			Err: fmt.Errorf("%s_API_KEY not set", strings.ToUpper(s.provider))}
	}

	reqBody := chatCompletionRequest{
		Model:       s.model,
		Messages:    toCompletionMessages(messages),
		Temperature: 0.2,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &SupervisorError{Op: "chat", Provider: s.provider, Retryable: false, Err: err}
	}

	var resp chatCompletionResponse
	headers := map[string]string{"Authorization": "Bearer " + s.apiKey}
	if err := doJSONChat(ctx, s.baseURL+"/chat/completions", headers, payload, &resp); err != nil {
		return "", &SupervisorError{Op: "chat", Provider: s.provider, Retryable: isRetryableHTTPLike(err), Err: err}
	}
	if resp.Error != nil {
		return "", &SupervisorError{Op: "chat", Provider: s.provider, Retryable: false,
			Err: fmt.Errorf("%s", resp.Error.Message)}
	}
	if len(resp.Choices) == 0 {
		return "", &SupervisorError{Op: "chat", Provider: s.provider, Retryable: true,
			Err: fmt.Errorf("empty choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *CustomSupervisor) Available(ctx context.Context) bool {
	return s.apiKey != ""
}

// knownCustomEndpoints maps the well-known provider tags from spec §6 to
// their OpenAI-compatible base URL, so callers building a CustomSupervisor
// from config need only supply a provider tag.
var knownCustomEndpoints = map[string]string{
	"deepseek":      "https://api.deepseek.com",
	"grok-xai":      "https://api.x.ai/v1",
	"qwen":          "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"kimi-moonshot": "https://api.moonshot.cn/v1",
}

// NewKnownCustomSupervisor builds a CustomSupervisor for one of the named
// providers in knownCustomEndpoints. It returns nil if provider is not
// recognized; callers fall back to a fully-specified NewCustomSupervisor
// in that case.
func NewKnownCustomSupervisor(name, provider, model, apiKey string) *CustomSupervisor {
	baseURL, ok := knownCustomEndpoints[provider]
	if !ok {
		return nil
	}
	return NewCustomSupervisor(name, provider, baseURL, model, apiKey)
}
