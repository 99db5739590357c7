package provider

import (
	"context"
	"encoding/json"
	"regexp"
)

// Score is a judge's verdict on one debate.
type Score struct {
	ProScore int    `json:"pro_score"`
	ConScore int    `json:"con_score"`
	Comments string `json:"comments"`
}

const defaultScoreValue = 75

var jsonBlock = regexp.MustCompile(`\{[\s\S]*\}`)

// GenerateScore asks an adapter to judge a debate with a strict-JSON
// prompt. If the response parses as JSON (directly or as the first
// bracketed block in free text) the scores are taken from it; otherwise
// a fixed default pair is returned with the raw text as commentary.
func GenerateScore(ctx context.Context, a Adapter, payload map[string]any) (Score, error) {
	input, _ := json.Marshal(payload)
	prompt := "Score this debate and return strict JSON with keys pro_score, con_score, comments.\nInput: " + string(input)

	text, err := a.GenerateSpeech(ctx,
		AgentConfig{Name: "Judge", Side: "neutral", SystemPrompt: "You are a neutral debate judge."},
		&Context{Task: "score"},
		Options{MaxWords: 200, UserOverride: prompt},
	)
	if err != nil {
		return Score{}, err
	}

	parsed, ok := extractJSON(text)
	if !ok {
		comments := "Auto score fallback"
		if text != "" {
			comments = truncate(text, 400)
		}
		return Score{ProScore: defaultScoreValue, ConScore: defaultScoreValue, Comments: comments}, nil
	}
	return Score{
		ProScore: intField(parsed, "pro_score", defaultScoreValue),
		ConScore: intField(parsed, "con_score", defaultScoreValue),
		Comments: stringField(parsed, "comments"),
	}, nil
}

// extractJSON tries a direct parse, then the first {...} block found in
// free text.
func extractJSON(text string) (map[string]any, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed, true
	}
	block := jsonBlock.FindString(text)
	if block == "" {
		return nil, false
	}
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

func intField(m map[string]any, key string, fallback int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		var out int
		if err := json.Unmarshal([]byte(v), &out); err == nil {
			return out
		}
	}
	return fallback
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
