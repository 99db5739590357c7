package provider

import (
	"log/slog"
	"strings"
	"sync"
)

// Default endpoints per provider key, applied when a config entry leaves
// BaseURL empty.
var defaultBaseURLs = map[string]string{
	"deepseek": "https://api.deepseek.com/v1",
	"openai":   "https://api.openai.com/v1",
	"gpt-4":    "https://api.openai.com/v1",
	"qwen":     "https://dashscope.aliyuncs.com/api/v1",
	"kimi":     "https://api.moonshot.cn/v1",
	"doubao":   "https://ark.cn-beijing.volces.com/api/v3",
	"gemini":   "https://generativelanguage.googleapis.com/v1",
	"glm":      "https://open.bigmodel.cn/api/paas/v4",
}

// Registry owns the configured adapter set and resolves names to
// adapters. Initialize replaces the whole set atomically.
type Registry struct {
	mu       sync.Mutex
	adapters map[string]Adapter
	order    []string
	aliases  map[string]string
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		adapters: make(map[string]Adapter),
		aliases:  make(map[string]string),
		logger:   logger,
	}
}

// Initialize disposes any previously held adapters and builds one per
// config entry, in order. Each adapter is aliased under its normalized
// provider key and normalized model id. Registration order defines the
// deterministic fallback adapter.
func (r *Registry) Initialize(configs []Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.adapters {
		a.Close()
	}
	r.adapters = make(map[string]Adapter)
	r.aliases = make(map[string]string)
	r.order = nil

	for _, cfg := range configs {
		key := strings.ToLower(strings.TrimSpace(cfg.Provider))
		if key == "" {
			continue
		}
		cfg.Provider = key
		if cfg.Model == "" {
			cfg.Model = key
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultBaseURLs[key]
		}

		if _, exists := r.adapters[key]; !exists {
			r.order = append(r.order, key)
		}
		r.adapters[key] = r.build(cfg)
		r.aliases[normalizeName(key)] = key
		r.aliases[normalizeName(cfg.Model)] = key
	}

	r.logger.Info("initialized adapters", "providers", r.order)
}

func (r *Registry) build(cfg Config) Adapter {
	switch {
	case cfg.Provider == "gemini":
		return newGeminiAdapter(cfg, r.logger)
	case cfg.Provider == "qwen" &&
		strings.Contains(cfg.BaseURL, "dashscope.aliyuncs.com") &&
		!strings.Contains(cfg.BaseURL, "compatible-mode"):
		return newDashScopeAdapter(cfg, r.logger)
	default:
		return newOpenAICompatAdapter(cfg, r.logger)
	}
}

// Get resolves a requested name to an adapter. An empty name yields the
// first-registered adapter. Resolution order: exact alias match, exact
// normalized provider key, substring match against provider keys and
// model ids, then the first-registered fallback.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.adapters) == 0 {
		return nil, ErrNoAdapters
	}
	if name == "" {
		return r.adapters[r.order[0]], nil
	}

	normalized := normalizeName(name)
	if key, ok := r.aliases[normalized]; ok {
		if a, ok := r.adapters[key]; ok {
			return a, nil
		}
	}
	if a, ok := r.adapters[normalized]; ok {
		return a, nil
	}
	for _, key := range r.order {
		a := r.adapters[key]
		if strings.Contains(normalizeName(key), normalized) ||
			strings.Contains(normalizeName(a.Model()), normalized) {
			return a, nil
		}
	}
	return r.adapters[r.order[0]], nil
}

// ListModels returns the configured model ids in registration order.
func (r *Registry) ListModels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	models := make([]string, 0, len(r.order))
	for _, key := range r.order {
		models = append(models, r.adapters[key].Model())
	}
	return models
}

// Close disposes every adapter and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.adapters {
		a.Close()
	}
	r.adapters = make(map[string]Adapter)
	r.aliases = make(map[string]string)
	r.order = nil
}
