package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/fundus/internal/model"
)

const envPrefix = "FUNDUS"

// defaultConfigPath returns ~/.fundus/config.yaml
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".fundus", "config.yaml"), nil
}

// newViper returns a viper instance reading FUNDUS_* variables, e.g. FUNDUS_PIPELINE_WORKERS
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig layers defaults, the YAML file at path, then env vars and flags known to v.
// An empty path falls back to ~/.fundus/config.yaml when it exists.
func loadConfig(path string, v *viper.Viper) (*model.Config, string, error) {
	cfg := model.DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err == nil {
			path = p
		}
	}

	used := ""
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decodeConfig(data, cfg); err != nil {
				return nil, "", fmt.Errorf("config file %s: %w", path, err)
			}
			used = path
		case explicit || !errors.Is(err, os.ErrNotExist):
			return nil, "", fmt.Errorf("read config: %w", err)
		}
	}

	if v != nil {
		for _, b := range overrides(cfg) {
			if v.IsSet(b.key) {
				b.apply(v, b.key)
			}
		}
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = apiKeyFromEnv(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, used, err
	}
	return cfg, used, nil
}

// decodeConfig decodes YAML onto cfg, rejecting unknown keys
func decodeConfig(data []byte, cfg *model.Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// apiKeyFromEnv reads the provider's conventional key variable
func apiKeyFromEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

type binding struct {
	key   string
	apply func(v *viper.Viper, key string)
}

func str(p *string) func(*viper.Viper, string) {
	return func(v *viper.Viper, k string) { *p = v.GetString(k) }
}

func integer(p *int) func(*viper.Viper, string) {
	return func(v *viper.Viper, k string) { *p = v.GetInt(k) }
}

func float(p *float64) func(*viper.Viper, string) {
	return func(v *viper.Viper, k string) { *p = v.GetFloat64(k) }
}

func boolean(p *bool) func(*viper.Viper, string) {
	return func(v *viper.Viper, k string) { *p = v.GetBool(k) }
}

func duration(p *time.Duration) func(*viper.Viper, string) {
	return func(v *viper.Viper, k string) { *p = v.GetDuration(k) }
}

func strs(p *[]string) func(*viper.Viper, string) {
	return func(v *viper.Viper, k string) { *p = v.GetStringSlice(k) }
}

// overrides lists the scalar keys that env vars and flags may set.
// Map-valued sections such as transforms.remapped are file-only.
func overrides(c *model.Config) []binding {
	return []binding{
		{"pipeline.id_field", str(&c.Pipeline.IDField)},
		{"pipeline.top_k", integer(&c.Pipeline.TopK)},
		{"pipeline.workers", integer(&c.Pipeline.Workers)},
		{"thresholds.high_confidence", float(&c.Thresholds.HighConfidence)},
		{"thresholds.coverage", float(&c.Thresholds.Coverage)},
		{"thresholds.min", float(&c.Thresholds.Min)},
		{"scorer.kind", str(&c.Scorer.Kind)},
		{"scorer.backend", str(&c.Scorer.Backend)},
		{"scorer.lexicon_path", str(&c.Scorer.LexiconPath)},
		{"scorer.text_fields", strs(&c.Scorer.TextFields)},
		{"scorer.normalize", str(&c.Scorer.Normalize)},
		{"scorer.temperature", float(&c.Scorer.Temperature)},
		{"scorer.threshold", float(&c.Scorer.Threshold)},
		{"llm.provider", str(&c.LLM.Provider)},
		{"llm.model", str(&c.LLM.Model)},
		{"llm.api_key", str(&c.LLM.APIKey)},
		{"llm.base_url", str(&c.LLM.BaseURL)},
		{"llm.timeout", duration(&c.LLM.Timeout)},
		{"llm.max_tokens", integer(&c.LLM.MaxTokens)},
		{"llm.temperature", float(&c.LLM.Temperature)},
		{"llm.labels", strs(&c.LLM.Labels)},
		{"llm.http_proxy", str(&c.LLM.HTTPProxy)},
		{"llm.https_proxy", str(&c.LLM.HTTPSProxy)},
		{"llm.no_proxy", str(&c.LLM.NoProxy)},
		{"rate_limiting.requests_per_second", float(&c.RateLimiting.RequestsPerSecond)},
		{"rate_limiting.burst_size", integer(&c.RateLimiting.BurstSize)},
		{"cache.enabled", boolean(&c.Cache.Enabled)},
		{"cache.dir", str(&c.Cache.Dir)},
		{"cache.memory_ttl", duration(&c.Cache.MemoryTTL)},
		{"cache.disk_ttl", duration(&c.Cache.DiskTTL)},
		{"input.prefix", str(&c.Input.Prefix)},
		{"input.separator", str(&c.Input.Separator)},
		{"input.max_records", integer(&c.Input.MaxRecords)},
		{"filters.basic", boolean(&c.Filters.Basic)},
		{"filters.public_only", boolean(&c.Filters.PublicOnly)},
		{"filters.editorial_only", boolean(&c.Filters.EditorialOnly)},
		{"filters.languages", strs(&c.Filters.Languages)},
		{"filters.min_text_length", integer(&c.Filters.MinTextLength)},
		{"output.path", str(&c.Output.Path)},
		{"output.format", str(&c.Output.Format)},
		{"output.include_record", boolean(&c.Output.IncludeRecord)},
		{"output.evaluate_field", str(&c.Output.EvaluateField)},
		{"log_level", str(&c.LogLevel)},
	}
}
