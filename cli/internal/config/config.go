// Package config provides commitsum configuration with a defined load order:
// CLI flags > environment variables > repo config > global config > defaults.
//
// Paths:
//   - Repo: .commitsum.toml at the repository root
//   - Global: XDG config dir, e.g. ~/.config/commitsum/config.toml (see os.UserConfigDir)
//
// Environment variables (override config files when set):
//   - COMMITSUM_STYLE, COMMITSUM_LANGUAGE, COMMITSUM_PROVIDER, COMMITSUM_MODEL
//   - COMMITSUM_TIMEOUT (Go duration string or integer seconds)
//   - COMMITSUM_TEMPERATURE, COMMITSUM_MAX_TOKENS, COMMITSUM_CONTEXT_LIMIT
//   - COMMITSUM_OLLAMA_BASE_URL, COMMITSUM_AWS_REGION, COMMITSUM_LOCALES_DIR
//   - COMMITSUM_COMMIT, COMMITSUM_SCOPE, COMMITSUM_BODY (1/true/yes/on or 0/false/no/off)
//   - DEFAULT_STYLE, DEFAULT_LANGUAGE, OPENAI_MODEL: older names, used only
//     when the COMMITSUM_ variable is unset
//
// API keys are never read from files: OPENAI_API_KEY, OPENAI_BASE_URL,
// GEMINI_API_KEY (or GOOGLE_API_KEY). Bedrock uses the AWS credential chain.
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"commitsum/cli/internal/erruser"
	"commitsum/cli/internal/facts"
	"commitsum/cli/internal/llm"
	"commitsum/cli/internal/render"
)

// Convention modes.
const (
	ModeExtend   = "extend"
	ModeOverride = "override"
)

// ConventionRule adjusts how paths of one kind are recognised. Mode "extend"
// (default) adds to the built-in lists; "override" replaces them.
type ConventionRule struct {
	Mode       string   `toml:"mode"`
	Segments   []string `toml:"segments"`
	Extensions []string `toml:"extensions"`
	Globs      []string `toml:"globs"`
	Contains   []string `toml:"contains"`
}

// ConventionsConfig is the [conventions] table.
type ConventionsConfig struct {
	Test   ConventionRule `toml:"test"`
	Docs   ConventionRule `toml:"docs"`
	Config ConventionRule `toml:"config"`
	Style  ConventionRule `toml:"style"`
}

// Config holds all commitsum configuration.
type Config struct {
	Style    string `toml:"style"`
	Language string `toml:"language"`
	Provider string `toml:"provider"`
	// Model is empty to use the provider's default.
	Model         string        `toml:"model"`
	OllamaBaseURL string        `toml:"ollama_base_url"`
	AWSRegion     string        `toml:"aws_region"`
	Timeout       time.Duration `toml:"timeout"`
	Temperature   float64       `toml:"temperature"`
	MaxTokens     int           `toml:"max_tokens"`
	// ContextLimit bounds the AI prompt in estimated tokens.
	ContextLimit int  `toml:"context_limit"`
	Commit       bool `toml:"commit"`
	Scope        bool `toml:"scope"`
	Body         bool `toml:"body"`
	// LocalesDir holds extra YAML locale packs. Empty means <global config dir>/locales.
	LocalesDir string `toml:"locales_dir"`
	// ExcludePatterns nil means the built-in list; an empty list disables exclusion.
	ExcludePatterns []string          `toml:"exclude_patterns"`
	RefactorRatio   float64           `toml:"refactor_ratio"`
	FixKeywords     []string          `toml:"fix_keywords"`
	PerfKeywords    []string          `toml:"perf_keywords"`
	Conventions     ConventionsConfig `toml:"conventions"`

	// Credentials come from the environment only.
	Credentials llm.Credentials `toml:"-"`
}

// Overrides are CLI flag values. A non-nil pointer overrides.
type Overrides struct {
	Style    *string
	Language *string
	Provider *string
	Model    *string
	Timeout  *time.Duration
	Commit   *bool
	Scope    *bool
	Body     *bool
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the repository root; if set, RepoRoot/.commitsum.toml is read.
	RepoRoot string
	// GlobalConfigPath is the global config file path; if empty, the XDG path is used.
	GlobalConfigPath string
	// Env is the environment as key=value; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last.
	Overrides *Overrides
}

// RepoConfigName is the per-repository config file.
const RepoConfigName = ".commitsum.toml"

const (
	_defaultTimeout      = 30 * time.Second
	_defaultTemperature  = 0.5
	_defaultMaxTokens    = 100
	_defaultContextLimit = 8192
)

// errIntOverflow is returned when an int64 value does not fit in int.
var errIntOverflow = errors.New("value out of range for int")

func int64ToInt(n int64) (int, error) {
	if n < int64(math.MinInt) || n > int64(math.MaxInt) {
		return 0, errIntOverflow
	}
	return int(n), nil
}

// DefaultConfig returns the default configuration (no I/O).
func DefaultConfig() Config {
	return Config{
		Style:         string(render.StyleDescriptive),
		Language:      render.DefaultLanguage,
		Provider:      llm.DefaultProvider,
		OllamaBaseURL: "http://localhost:11434",
		Timeout:       _defaultTimeout,
		Temperature:   _defaultTemperature,
		MaxTokens:     _defaultMaxTokens,
		ContextLimit:  _defaultContextLimit,
		Body:          true,
	}
}

// GlobalDir returns the commitsum directory under the user config dir.
func GlobalDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "commitsum"), nil
}

// Load loads configuration with precedence: defaults < global file < repo
// file < env < overrides. Missing files are ignored; invalid TOML or values
// return an erruser error.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		dir, err := GlobalDir()
		if err != nil {
			return nil, erruser.New("Could not determine config directory.", err)
		}
		globalPath = filepath.Join(dir, "config.toml")
	}
	if err := mergeFile(&cfg, globalPath); err != nil {
		return nil, err
	}
	if opts.RepoRoot != "" {
		if err := mergeFile(&cfg, filepath.Join(opts.RepoRoot, RepoConfigName)); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}
	applyOverrides(&cfg, opts.Overrides)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and ranged values.
func (c *Config) Validate() error {
	style, err := render.ParseStyle(c.Style)
	if err != nil {
		return erruser.WithHint("Invalid style.", "Use descriptive, conventional or ai.", err)
	}
	c.Style = string(style)
	c.Provider = llm.NormalizeProvider(c.Provider)
	if err := llm.Validate(c.Provider); err != nil {
		return erruser.WithHint("Invalid AI provider.",
			"Use "+strings.Join(llm.Providers(), ", ")+", or genai:<name>.", err)
	}
	if c.Timeout <= 0 {
		return erruser.New("Timeout must be positive.", nil)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return erruser.New("Temperature must be between 0 and 2.", nil)
	}
	if c.MaxTokens <= 0 {
		return erruser.New("max_tokens must be positive.", nil)
	}
	for _, kind := range []ConventionRule{c.Conventions.Test, c.Conventions.Docs, c.Conventions.Config, c.Conventions.Style} {
		switch strings.ToLower(kind.Mode) {
		case "", ModeExtend, ModeOverride:
		default:
			return erruser.WithHint("Invalid conventions mode.", `Use mode = "extend" or mode = "override".`, fmt.Errorf("mode %q", kind.Mode))
		}
	}
	return nil
}

// EffectiveLocalesDir returns LocalesDir, or <global config dir>/locales.
func (c Config) EffectiveLocalesDir() string {
	if c.LocalesDir != "" {
		return c.LocalesDir
	}
	dir, err := GlobalDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "locales")
}

// FactConventions applies the [conventions] table to the built-in mapping.
func (c Config) FactConventions() facts.Conventions {
	var extend, override facts.Conventions
	split := func(r ConventionRule, ext, ovr *facts.Convention) {
		conv := facts.Convention{Segments: r.Segments, Extensions: r.Extensions, Globs: r.Globs, Contains: r.Contains}
		if strings.EqualFold(r.Mode, ModeOverride) {
			*ovr = conv
		} else {
			*ext = conv
		}
	}
	split(c.Conventions.Test, &extend.Test, &override.Test)
	split(c.Conventions.Docs, &extend.Docs, &override.Docs)
	split(c.Conventions.Config, &extend.Config, &override.Config)
	split(c.Conventions.Style, &extend.Style, &override.Style)
	return facts.DefaultConventions().Override(override).Extend(extend)
}

// LLMSettings returns the backend selection for llm.New.
func (c Config) LLMSettings() llm.Settings {
	return llm.Settings{
		Provider:      c.Provider,
		Model:         c.Model,
		OllamaBaseURL: c.OllamaBaseURL,
		AWSRegion:     c.AWSRegion,
		Credentials:   c.Credentials,
	}
}

// mergeFile reads path and merges the keys it sets into cfg. A missing file
// is skipped.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Could not read configuration file.", err)
	}
	var file struct {
		Style           *string            `toml:"style"`
		Language        *string            `toml:"language"`
		Provider        *string            `toml:"provider"`
		Model           *string            `toml:"model"`
		OllamaBaseURL   *string            `toml:"ollama_base_url"`
		AWSRegion       *string            `toml:"aws_region"`
		Timeout         *string            `toml:"timeout"`
		Temperature     *float64           `toml:"temperature"`
		MaxTokens       *int64             `toml:"max_tokens"`
		ContextLimit    *int64             `toml:"context_limit"`
		Commit          *bool              `toml:"commit"`
		Scope           *bool              `toml:"scope"`
		Body            *bool              `toml:"body"`
		LocalesDir      *string            `toml:"locales_dir"`
		ExcludePatterns *[]string          `toml:"exclude_patterns"`
		RefactorRatio   *float64           `toml:"refactor_ratio"`
		FixKeywords     *[]string          `toml:"fix_keywords"`
		PerfKeywords    *[]string          `toml:"perf_keywords"`
		Conventions     *ConventionsConfig `toml:"conventions"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.WithHint("Invalid configuration in "+filepath.Base(path)+".", "Fix the TOML syntax in "+path+".", err)
	}
	setString(&cfg.Style, file.Style)
	setString(&cfg.Language, file.Language)
	setString(&cfg.Provider, file.Provider)
	setString(&cfg.Model, file.Model)
	setString(&cfg.OllamaBaseURL, file.OllamaBaseURL)
	setString(&cfg.AWSRegion, file.AWSRegion)
	setString(&cfg.LocalesDir, file.LocalesDir)
	if file.Timeout != nil && *file.Timeout != "" {
		d, err := parseDuration(*file.Timeout)
		if err != nil {
			return erruser.New("Configuration timeout is invalid.", err)
		}
		cfg.Timeout = d
	}
	if file.Temperature != nil {
		cfg.Temperature = *file.Temperature
	}
	if file.MaxTokens != nil && *file.MaxTokens > 0 {
		v, err := int64ToInt(*file.MaxTokens)
		if err != nil {
			return erruser.New("Configuration max_tokens value out of range.", err)
		}
		cfg.MaxTokens = v
	}
	if file.ContextLimit != nil && *file.ContextLimit >= 0 {
		v, err := int64ToInt(*file.ContextLimit)
		if err != nil {
			return erruser.New("Configuration context_limit value out of range.", err)
		}
		cfg.ContextLimit = v
	}
	setBool(&cfg.Commit, file.Commit)
	setBool(&cfg.Scope, file.Scope)
	setBool(&cfg.Body, file.Body)
	if file.ExcludePatterns != nil {
		cfg.ExcludePatterns = append([]string{}, *file.ExcludePatterns...)
	}
	if file.RefactorRatio != nil {
		if *file.RefactorRatio <= 0 {
			return erruser.New("Configuration refactor_ratio must be positive.", nil)
		}
		cfg.RefactorRatio = *file.RefactorRatio
	}
	if file.FixKeywords != nil {
		cfg.FixKeywords = *file.FixKeywords
	}
	if file.PerfKeywords != nil {
		cfg.PerfKeywords = *file.PerfKeywords
	}
	if file.Conventions != nil {
		mergeRule(&cfg.Conventions.Test, file.Conventions.Test)
		mergeRule(&cfg.Conventions.Docs, file.Conventions.Docs)
		mergeRule(&cfg.Conventions.Config, file.Conventions.Config)
		mergeRule(&cfg.Conventions.Style, file.Conventions.Style)
	}
	return nil
}

// mergeRule lets a repo file refine a global rule: lists accumulate and a
// set mode wins.
func mergeRule(dst *ConventionRule, src ConventionRule) {
	if src.Mode != "" {
		dst.Mode = src.Mode
	}
	dst.Segments = append(dst.Segments, src.Segments...)
	dst.Extensions = append(dst.Extensions, src.Extensions...)
	dst.Globs = append(dst.Globs, src.Globs...)
	dst.Contains = append(dst.Contains, src.Contains...)
}

func setString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(n) * time.Second, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o == nil {
		return
	}
	setString(&cfg.Style, o.Style)
	setString(&cfg.Language, o.Language)
	setString(&cfg.Provider, o.Provider)
	setString(&cfg.Model, o.Model)
	if o.Timeout != nil && *o.Timeout > 0 {
		cfg.Timeout = *o.Timeout
	}
	setBool(&cfg.Commit, o.Commit)
	setBool(&cfg.Scope, o.Scope)
	setBool(&cfg.Body, o.Body)
}
