package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoProviderConfigs() []Config {
	return []Config{
		{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k1"},
		{Provider: "qwen", Model: "qwen-turbo", APIKey: "k2"},
	}
}

func TestGet_EmptyRegistry(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Get("deepseek")
	require.ErrorIs(t, err, ErrNoAdapters)
	_, err = r.Get("")
	require.ErrorIs(t, err, ErrNoAdapters)
}

func TestGet_ResolutionOrder(t *testing.T) {
	r := NewRegistry(nil)
	r.Initialize(twoProviderConfigs())
	defer r.Close()

	cases := []struct {
		name string
		want string
	}{
		{"deepseek", "deepseek"},         // exact provider key
		{"qwen-turbo", "qwen"},           // exact model alias
		{"Deep-Seek", "deepseek"},        // case/punctuation insensitive
		{"QWEN_TURBO", "qwen"},           // normalized model alias
		{"turbo", "qwen"},                // substring of a model id
		{"", "deepseek"},                 // empty name: first registered
		{"claude-3-opus", "deepseek"},    // no match: first registered
	}
	for _, tc := range cases {
		a, err := r.Get(tc.name)
		require.NoError(t, err, "resolving %q", tc.name)
		assert.Equal(t, tc.want, a.Provider(), "resolving %q", tc.name)
	}
}

func TestInitialize_SelectsAdapterVariants(t *testing.T) {
	r := NewRegistry(nil)
	r.Initialize([]Config{
		{Provider: "gemini", Model: "gemini-pro", APIKey: "k"},
		{Provider: "qwen", Model: "qwen-turbo", APIKey: "k",
			BaseURL: "https://dashscope.aliyuncs.com/api/v1"},
		{Provider: "qwen-compat", Model: "qwen-plus", APIKey: "k",
			BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1"},
		{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k"},
	})
	defer r.Close()

	gem, err := r.Get("gemini")
	require.NoError(t, err)
	assert.IsType(t, &geminiAdapter{}, gem)

	qwen, err := r.Get("qwen")
	require.NoError(t, err)
	assert.IsType(t, &dashScopeAdapter{}, qwen)

	compat, err := r.Get("qwen-plus")
	require.NoError(t, err)
	assert.IsType(t, &openAICompatAdapter{}, compat)

	ds, err := r.Get("deepseek")
	require.NoError(t, err)
	assert.IsType(t, &openAICompatAdapter{}, ds)
}

func TestInitialize_AppliesDefaults(t *testing.T) {
	r := NewRegistry(nil)
	r.Initialize([]Config{{Provider: "DeepSeek", APIKey: "k"}})
	defer r.Close()

	a, err := r.Get("deepseek")
	require.NoError(t, err)
	// Model falls back to the provider key, base URL to the known default.
	assert.Equal(t, "deepseek", a.Model())
	compat := a.(*openAICompatAdapter)
	assert.Equal(t, "https://api.deepseek.com/v1", compat.baseURL)
	assert.Equal(t, DefaultMaxRetries, compat.maxRetries)
}

func TestInitialize_ReplacesPreviousSet(t *testing.T) {
	r := NewRegistry(nil)
	r.Initialize(twoProviderConfigs())
	r.Initialize([]Config{{Provider: "gemini", Model: "gemini-pro", APIKey: "k"}})
	defer r.Close()

	assert.Equal(t, []string{"gemini-pro"}, r.ListModels())

	// Old aliases are gone; the unmatched name now falls back to gemini.
	a, err := r.Get("deepseek-chat")
	require.NoError(t, err)
	assert.Equal(t, "gemini", a.Provider())
}

func TestListModels_RegistrationOrder(t *testing.T) {
	r := NewRegistry(nil)
	r.Initialize(twoProviderConfigs())
	defer r.Close()
	assert.Equal(t, []string{"deepseek-chat", "qwen-turbo"}, r.ListModels())
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "deepseek", normalizeName("Deep-Seek"))
	assert.Equal(t, "qwenturbo", normalizeName("QWEN_turbo!"))
	assert.Equal(t, "", normalizeName("---"))
}
