package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// geminiAdapter speaks the Gemini content-generation shape. The API key
// travels as a query parameter, not a bearer header.
type geminiAdapter struct {
	httpAdapter
}

func newGeminiAdapter(cfg Config, logger *slog.Logger) *geminiAdapter {
	return &geminiAdapter{httpAdapter: newHTTPAdapter(cfg, logger)}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"system_instruction"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (a *geminiAdapter) GenerateSpeech(ctx context.Context, agent AgentConfig, dctx *Context, opts Options) (string, error) {
	if err := a.requireKey(); err != nil {
		return "", err
	}
	system, user := buildPrompt(agent, dctx, opts.maxWords())
	if opts.UserOverride != "" {
		user = opts.UserOverride
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, a.model, a.apiKey)

	payload := geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
	}
	payload.GenerationConfig.Temperature = opts.temperature()
	payload.GenerationConfig.MaxOutputTokens = opts.maxTokens()

	return a.withRetry(ctx, func(ctx context.Context) (string, error) {
		body, err := a.postJSON(ctx, url, nil, payload)
		if err != nil {
			return "", err
		}
		var resp geminiResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(resp.Candidates) == 0 {
			return "", fmt.Errorf("empty candidates: %s", truncate(string(body), 200))
		}
		var b strings.Builder
		for i, p := range resp.Candidates[0].Content.Parts {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(p.Text)
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			return "", fmt.Errorf("empty text: %s", truncate(string(body), 200))
		}
		return text, nil
	})
}
