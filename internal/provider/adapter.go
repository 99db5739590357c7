package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 3
	defaultMaxWords   = 300
)

// Config describes one adapter to build. Provider selects the variant
// and the alias table entry; Model adds a second alias.
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// AgentConfig identifies the speaking agent for prompt construction.
type AgentConfig struct {
	Name         string
	Side         string
	SystemPrompt string
}

// Context is the textual debate context a speech is generated from.
type Context struct {
	Phase       string   `json:"phase,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Instruction string   `json:"instruction,omitempty"`
	Reference   string   `json:"reference,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
	Task        string   `json:"task,omitempty"`
}

// Options tune one generation call. Zero values fall back to defaults;
// UserOverride replaces the constructed user prompt entirely.
type Options struct {
	MaxWords     int
	Temperature  float64
	MaxTokens    int
	UserOverride string
}

func (o Options) maxWords() int {
	if o.MaxWords > 0 {
		return o.MaxWords
	}
	return defaultMaxWords
}

func (o Options) temperature() float64 {
	if o.Temperature > 0 {
		return o.Temperature
	}
	return 0.7
}

func (o Options) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	tokens := o.maxWords() * 3
	if tokens < 128 {
		tokens = 128
	}
	if tokens > 2048 {
		tokens = 2048
	}
	return tokens
}

// Adapter turns a prompt into generated text for one external provider.
// Variants differ only in request/response shape; the prompt and retry
// contract is shared.
type Adapter interface {
	Provider() string
	Model() string
	GenerateSpeech(ctx context.Context, agent AgentConfig, dctx *Context, opts Options) (string, error)
	Close()
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeName lowercases and strips every non-alphanumeric character,
// producing the alias form used for resolution.
func normalizeName(value string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(value), "")
}

// httpAdapter carries the pieces every variant shares: the HTTP client,
// the credential check, and the bounded retry loop.
type httpAdapter struct {
	provider   string
	model      string
	apiKey     string
	baseURL    string
	maxRetries int
	client     *http.Client
	logger     *slog.Logger
}

func newHTTPAdapter(cfg Config, logger *slog.Logger) httpAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return httpAdapter{
		provider:   cfg.Provider,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: retries,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (a *httpAdapter) Provider() string { return a.provider }
func (a *httpAdapter) Model() string    { return a.model }

func (a *httpAdapter) Close() {
	a.client.CloseIdleConnections()
}

func (a *httpAdapter) requireKey() error {
	if a.apiKey == "" {
		return fmt.Errorf("%s: %w", a.provider, ErrMissingAPIKey)
	}
	return nil
}

// withRetry runs attempt up to maxRetries times, logging each failure.
// Exhaustion yields a GenerationError wrapping the last error.
func (a *httpAdapter) withRetry(ctx context.Context, attempt func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for i := 1; i <= a.maxRetries; i++ {
		text, err := attempt(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err
		a.logger.Warn("generation request failed",
			"provider", a.provider, "attempt", i, "max_retries", a.maxRetries, "error", err)
	}
	return "", &GenerationError{Provider: a.provider, Attempts: a.maxRetries, Err: lastErr}
}

// postJSON issues one POST with a JSON body and returns the response
// body. Non-2xx statuses are errors carrying a body excerpt.
func (a *httpAdapter) postJSON(ctx context.Context, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// buildPrompt assembles the shared prompt contract: the agent's system
// role, a phase-sensitive style directive, the fixed hard constraints,
// and the serialized context.
func buildPrompt(agent AgentConfig, dctx *Context, maxWords int) (system, user string) {
	if dctx == nil {
		dctx = &Context{}
	}
	phase := strings.ToLower(dctx.Phase)

	style := "No pleasantries or honorifics; go straight to the points of conflict and evidence."
	switch {
	case strings.Contains(phase, "opening") || strings.Contains(dctx.Phase, "开场") || strings.Contains(dctx.Phase, "立论"):
		style = "One polite sentence is allowed at the start; everything after is direct argument."
	case strings.Contains(phase, "cross") || strings.Contains(dctx.Phase, "盘问"):
		style = "Cross-examination: every question or answer must be checkable and open to follow-up, never vague."
	case strings.Contains(phase, "free") || strings.Contains(dctx.Phase, "自由"):
		style = "Free debate: short sentences, high density, more aggressive; attack positions, never people."
	case strings.Contains(phase, "summary") || strings.Contains(dctx.Phase, "总结"):
		style = "Summary: return to the core disagreements of the whole debate and state clear grounds for a verdict."
	case strings.Contains(phase, "judge") || strings.Contains(dctx.Phase, "评委"):
		style = "Judge commentary: objective and concise, with grounds, strengths, weaknesses, and suggestions."
	}

	system = agent.SystemPrompt
	if system == "" {
		name := agent.Name
		if name == "" {
			name = "Agent"
		}
		system = fmt.Sprintf("You are %s in a formal debate.", name)
	}
	side := agent.Side
	if side == "" {
		side = "neutral"
	}

	var constraints strings.Builder
	for _, c := range dctx.Constraints {
		if c != "" {
			constraints.WriteString("- " + c + "\n")
		}
	}
	contextJSON, _ := json.Marshal(dctx)

	user = fmt.Sprintf(`Generate one debate speech (plain body text only, no titles or stage directions).
Word limit: %d
Topic: %s
Phase: %s
Side: %s
Style: %s
Hard constraints:
- No boilerplate or filler phrases.
- Include at least one verifiable point (data, mechanism, case, or causal chain).
- Respond to the live disagreement; do not just restate your own position.
- Analogies, rhetorical questions, and unconventional angles are allowed; avoid template structure.
- Sharpness is allowed against arguments and evidence, never against persons.
%sAdditional instruction: %s
Opponent's latest remarks: %s
Context JSON: %s
Return plain text only.`,
		maxWords, dctx.Topic, dctx.Phase, side, style,
		constraints.String(), dctx.Instruction, dctx.Reference, contextJSON)
	return system, user
}
