package config

import (
	"strconv"
	"strings"

	"commitsum/cli/internal/erruser"
	"commitsum/cli/internal/llm"
)

// env key names for config
const (
	envStyle         = "COMMITSUM_STYLE"
	envLanguage      = "COMMITSUM_LANGUAGE"
	envProvider      = "COMMITSUM_PROVIDER"
	envModel         = "COMMITSUM_MODEL"
	envTimeout       = "COMMITSUM_TIMEOUT"
	envTemperature   = "COMMITSUM_TEMPERATURE"
	envMaxTokens     = "COMMITSUM_MAX_TOKENS"
	envContextLimit  = "COMMITSUM_CONTEXT_LIMIT"
	envOllamaBaseURL = "COMMITSUM_OLLAMA_BASE_URL"
	envAWSRegion     = "COMMITSUM_AWS_REGION"
	envLocalesDir    = "COMMITSUM_LOCALES_DIR"
	envCommit        = "COMMITSUM_COMMIT"
	envScope         = "COMMITSUM_SCOPE"
	envBody          = "COMMITSUM_BODY"

	envLegacyStyle    = "DEFAULT_STYLE"
	envLegacyLanguage = "DEFAULT_LANGUAGE"
	envOpenAIModel    = "OPENAI_MODEL"

	envOpenAIKey     = "OPENAI_API_KEY"
	envOpenAIBaseURL = "OPENAI_BASE_URL"
	envGeminiKey     = "GEMINI_API_KEY"
	envGoogleKey     = "GOOGLE_API_KEY"
)

func parseEnv(env []string) map[string]string {
	vals := make(map[string]string)
	for _, e := range env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		vals[strings.TrimSpace(e[:idx])] = strings.TrimSpace(e[idx+1:])
	}
	return vals
}

// first returns the first non-empty value among keys.
func first(vals map[string]string, keys ...string) (string, bool) {
	for _, k := range keys {
		if v := vals[k]; v != "" {
			return v, true
		}
	}
	return "", false
}

func applyEnv(cfg *Config, env []string) error {
	vals := parseEnv(env)

	if v, ok := first(vals, envStyle, envLegacyStyle); ok {
		cfg.Style = v
	}
	if v, ok := first(vals, envLanguage, envLegacyLanguage); ok {
		cfg.Language = v
	}
	if v, ok := first(vals, envProvider); ok {
		cfg.Provider = v
	}
	if v, ok := first(vals, envModel); ok {
		cfg.Model = v
	} else if v, ok := first(vals, envOpenAIModel); ok && llm.NormalizeProvider(cfg.Provider) == llm.ProviderOpenAI {
		cfg.Model = v
	}
	if v, ok := first(vals, envOllamaBaseURL); ok {
		cfg.OllamaBaseURL = v
	}
	if v, ok := first(vals, envAWSRegion); ok {
		cfg.AWSRegion = v
	}
	if v, ok := vals[envLocalesDir]; ok {
		cfg.LocalesDir = v
	}
	if v, ok := first(vals, envTimeout); ok {
		d, err := parseDuration(v)
		if err != nil {
			return erruser.New(envTimeout+" must be a valid duration.", err)
		}
		cfg.Timeout = d
	}
	if v, ok := first(vals, envTemperature); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return erruser.New(envTemperature+" must be a valid number.", err)
		}
		cfg.Temperature = f
	}
	for _, ent := range []struct {
		key string
		dst *int
	}{
		{envMaxTokens, &cfg.MaxTokens},
		{envContextLimit, &cfg.ContextLimit},
	} {
		v, ok := first(vals, ent.key)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return erruser.New(ent.key+" must be a valid number.", err)
		}
		if n < 0 {
			return erruser.New(ent.key+" must be non-negative.", nil)
		}
		if *ent.dst, err = int64ToInt(n); err != nil {
			return erruser.New(ent.key+" value out of range.", err)
		}
	}
	for _, ent := range []struct {
		key string
		dst *bool
	}{
		{envCommit, &cfg.Commit},
		{envScope, &cfg.Scope},
		{envBody, &cfg.Body},
	} {
		v, ok := first(vals, ent.key)
		if !ok {
			continue
		}
		b, err := parseBool(v)
		if err != nil {
			return erruser.New(ent.key+" must be 1/true/yes/on or 0/false/no/off.", err)
		}
		*ent.dst = b
	}

	cfg.Credentials = llm.Credentials{
		OpenAIKey:     vals[envOpenAIKey],
		OpenAIBaseURL: vals[envOpenAIBaseURL],
	}
	cfg.Credentials.GeminiKey, _ = first(vals, envGeminiKey, envGoogleKey)
	return nil
}
