package crawl

import "strings"

// DefaultProviders is the registry seeded when no provider record file
// exists yet. Saving any provider persists the whole seeded set.
func DefaultProviders() []LLMProvider {
	return []LLMProvider{
		{
			ID:        "openai",
			Name:      "OpenAI",
			Provider:  "openai/gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			Enabled:   true,
			Models:    []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo"},
		},
		{
			ID:        "anthropic",
			Name:      "Anthropic Claude",
			Provider:  "anthropic/claude-3-5-sonnet-20241022",
			APIKeyEnv: "ANTHROPIC_API_KEY",
			Models:    []string{"claude-3-5-sonnet-20241022", "claude-3-opus-20240229"},
		},
		{
			ID:        "zai",
			Name:      "z.AI GLM4.6",
			Provider:  "openai/glm-4-air",
			APIKeyEnv: "ZAI_API_KEY",
			APIBase:   "https://open.bigmodel.cn/api/paas/v4",
			Models:    []string{"glm-4-air", "glm-4-flash"},
		},
		{
			ID:        "lmstudio",
			Name:      "LM Studio",
			Provider:  "openai/local-model",
			APIKeyEnv: "LMSTUDIO_API_KEY",
			APIBase:   "http://localhost:1234/v1",
		},
		{
			ID:        "gemini",
			Name:      "Google Gemini",
			Provider:  "gemini/gemini-2.0-flash-exp",
			APIKeyEnv: "GEMINI_API_KEY",
			Models:    []string{"gemini-2.0-flash-exp", "gemini-1.5-pro"},
		},
	}
}

// ActiveProvider resolves the provider the settings record marks active.
// Settings reference a provider by routing string, not id, and existing
// records may carry a longer string than the registry entry, so the match
// is "active string contains the provider's routing string". Kept in one
// place so the matching can be hardened to exact-id lookup later without
// touching callers.
func ActiveProvider(settings Settings, providers []LLMProvider) (LLMProvider, bool) {
	if settings.ActiveLLMProvider == "" {
		return LLMProvider{}, false
	}
	for _, p := range providers {
		if p.Provider != "" && strings.Contains(settings.ActiveLLMProvider, p.Provider) {
			return p, true
		}
	}
	return LLMProvider{}, false
}
