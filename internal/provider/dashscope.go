package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// dashScopeAdapter speaks DashScope's native text-generation shape,
// used for Qwen when the endpoint is not in compatible mode.
type dashScopeAdapter struct {
	httpAdapter
}

func newDashScopeAdapter(cfg Config, logger *slog.Logger) *dashScopeAdapter {
	return &dashScopeAdapter{httpAdapter: newHTTPAdapter(cfg, logger)}
}

type dashScopeRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []chatMessage `json:"messages"`
	} `json:"input"`
	Parameters struct {
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	} `json:"parameters"`
	ResultFormat string `json:"result_format"`
}

type dashScopeResponse struct {
	Output struct {
		Text    string `json:"text"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
}

func (a *dashScopeAdapter) GenerateSpeech(ctx context.Context, agent AgentConfig, dctx *Context, opts Options) (string, error) {
	if err := a.requireKey(); err != nil {
		return "", err
	}
	system, user := buildPrompt(agent, dctx, opts.maxWords())
	if opts.UserOverride != "" {
		user = opts.UserOverride
	}
	url := a.baseURL + "/services/aigc/text-generation/generation"
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}

	payload := dashScopeRequest{Model: a.model, ResultFormat: "message"}
	payload.Input.Messages = []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	payload.Parameters.Temperature = opts.temperature()
	payload.Parameters.MaxTokens = opts.maxTokens()

	return a.withRetry(ctx, func(ctx context.Context) (string, error) {
		body, err := a.postJSON(ctx, url, headers, payload)
		if err != nil {
			return "", err
		}
		var resp dashScopeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if resp.Output.Text != "" {
			return strings.TrimSpace(resp.Output.Text), nil
		}
		if len(resp.Output.Choices) > 0 {
			return strings.TrimSpace(resp.Output.Choices[0].Message.Content), nil
		}
		return "", fmt.Errorf("unexpected response: %s", truncate(string(body), 200))
	})
}
