package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// openAICompatAdapter speaks the chat-completions shape shared by
// OpenAI, DeepSeek, Kimi, Doubao, GLM, and DashScope compatible mode.
type openAICompatAdapter struct {
	httpAdapter
}

func newOpenAICompatAdapter(cfg Config, logger *slog.Logger) *openAICompatAdapter {
	return &openAICompatAdapter{httpAdapter: newHTTPAdapter(cfg, logger)}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *openAICompatAdapter) GenerateSpeech(ctx context.Context, agent AgentConfig, dctx *Context, opts Options) (string, error) {
	if err := a.requireKey(); err != nil {
		return "", err
	}
	system, user := buildPrompt(agent, dctx, opts.maxWords())
	if opts.UserOverride != "" {
		user = opts.UserOverride
	}
	url := a.baseURL + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}
	payload := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: opts.temperature(),
		MaxTokens:   opts.maxTokens(),
	}

	return a.withRetry(ctx, func(ctx context.Context) (string, error) {
		body, err := a.postJSON(ctx, url, headers, payload)
		if err != nil {
			return "", err
		}
		var resp chatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty choices in response")
		}
		return decodeChatContent(resp.Choices[0].Message.Content)
	})
}

// decodeChatContent handles both the plain-string content and the
// part-list form some compatible providers return.
func decodeChatContent(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text), nil
	}
	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("unexpected content shape: %s", truncate(string(raw), 120))
	}
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
