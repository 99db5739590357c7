package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agora-ai/agora/internal/provider"
)

// providerOrder fixes the registration order of configured providers,
// which also defines the resolver's first-registered fallback.
var providerOrder = []string{"deepseek", "openai", "qwen", "kimi", "doubao", "gemini", "glm"}

type ProviderSettings struct {
	APIKey  string
	APIBase string
	Model   string
}

type Config struct {
	ServerHost string
	ServerPort int
	LogLevel   string

	WSHeartbeatInterval time.Duration
	WSConnectionTimeout time.Duration

	AIRequestTimeout time.Duration
	AIMaxRetries     int

	Providers map[string]ProviderSettings
}

// Load reads settings from the environment, with an optional .env file
// and defaults matching the deployed service.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8000)
	v.SetDefault("LOG_LEVEL", "INFO")

	v.SetDefault("WS_HEARTBEAT_INTERVAL", 30)
	v.SetDefault("WS_CONNECTION_TIMEOUT", 300)

	v.SetDefault("AI_REQUEST_TIMEOUT", 60)
	v.SetDefault("AI_MAX_RETRIES", 3)

	v.SetDefault("DEEPSEEK_API_BASE", "https://api.deepseek.com/v1")
	v.SetDefault("DEEPSEEK_MODEL", "deepseek-chat")
	v.SetDefault("OPENAI_API_BASE", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("QWEN_API_BASE", "https://dashscope.aliyuncs.com/api/v1")
	v.SetDefault("QWEN_MODEL", "qwen-turbo")
	v.SetDefault("KIMI_API_BASE", "https://api.moonshot.cn/v1")
	v.SetDefault("KIMI_MODEL", "kimi-k2-turbo-preview")
	v.SetDefault("DOUBAO_API_BASE", "https://ark.cn-beijing.volces.com/api/v3")
	v.SetDefault("DOUBAO_MODEL", "")
	v.SetDefault("GEMINI_API_BASE", "https://generativelanguage.googleapis.com/v1")
	v.SetDefault("GEMINI_MODEL", "gemini-pro")
	v.SetDefault("GLM_API_BASE", "https://open.bigmodel.cn/api/paas/v4")
	v.SetDefault("GLM_MODEL", "glm-4.7")

	// A local .env file is optional; the environment wins either way.
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	cfg := &Config{
		ServerHost:          v.GetString("SERVER_HOST"),
		ServerPort:          v.GetInt("SERVER_PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		WSHeartbeatInterval: time.Duration(v.GetInt("WS_HEARTBEAT_INTERVAL")) * time.Second,
		WSConnectionTimeout: time.Duration(v.GetInt("WS_CONNECTION_TIMEOUT")) * time.Second,
		AIRequestTimeout:    time.Duration(v.GetInt("AI_REQUEST_TIMEOUT")) * time.Second,
		AIMaxRetries:        v.GetInt("AI_MAX_RETRIES"),
		Providers:           make(map[string]ProviderSettings, len(providerOrder)),
	}
	if cfg.WSHeartbeatInterval < 5*time.Second {
		cfg.WSHeartbeatInterval = 5 * time.Second
	}

	for _, name := range providerOrder {
		prefix := strings.ToUpper(name)
		cfg.Providers[name] = ProviderSettings{
			APIKey:  v.GetString(prefix + "_API_KEY"),
			APIBase: v.GetString(prefix + "_API_BASE"),
			Model:   v.GetString(prefix + "_MODEL"),
		}
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// ProviderConfigs builds the ordered adapter config slice from every
// provider that has a credential set.
func (c *Config) ProviderConfigs() []provider.Config {
	configs := make([]provider.Config, 0, len(providerOrder))
	for _, name := range providerOrder {
		s := c.Providers[name]
		if s.APIKey == "" {
			continue
		}
		configs = append(configs, provider.Config{
			Provider:   name,
			Model:      s.Model,
			APIKey:     s.APIKey,
			BaseURL:    s.APIBase,
			Timeout:    c.AIRequestTimeout,
			MaxRetries: c.AIMaxRetries,
		})
	}
	return configs
}
