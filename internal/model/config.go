package model

import (
	"fmt"
	"math"
	"time"
)

// Config holds all fundus configuration
type Config struct {
	Pipeline     PipelineConfig     `yaml:"pipeline"`
	Thresholds   Thresholds         `yaml:"thresholds"`
	Scorer       ScorerConfig       `yaml:"scorer"`
	LLM          LLMConfig          `yaml:"llm"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache"`
	Input        InputConfig        `yaml:"input"`
	Filters      FilterConfig       `yaml:"filters"`
	Transforms   TransformConfig    `yaml:"transforms"`
	Output       OutputConfig       `yaml:"output"`
	LogLevel     string             `yaml:"log_level"`
}

// PipelineConfig governs a single pipeline run
type PipelineConfig struct {
	IDField    string     `yaml:"id_field"`
	TopK       int        `yaml:"top_k"`
	Workers    int        `yaml:"workers"`
	Thresholds Thresholds `yaml:"-"`
}

// Thresholds govern the joint-probability assignment policy
type Thresholds struct {
	HighConfidence float64 `yaml:"high_confidence"` // (0,1]
	Coverage       float64 `yaml:"coverage"`        // (0,1]
	Min            float64 `yaml:"min"`             // [0,1)
}

// ScorerConfig selects and parameterizes the terminal scorer
type ScorerConfig struct {
	Kind        string   `yaml:"kind"`    // flat, joint
	Backend     string   `yaml:"backend"` // lexicon, llm
	LexiconPath string   `yaml:"lexicon_path"`
	TextFields  []string `yaml:"text_fields"`
	Normalize   string   `yaml:"normalize"` // softmax, proportional
	Temperature float64  `yaml:"temperature"`
	Threshold   float64  `yaml:"threshold"` // Flat label cut-off used by evaluation
}

// LLMConfig configures the chat-completion scorer
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"-"` // Read from the environment only
	BaseURL     string        `yaml:"base_url,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"` // Sampling temperature sent with each request
	Labels      []string      `yaml:"labels"`
	HTTPProxy   string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy  string        `yaml:"https_proxy,omitempty"`
	NoProxy     string        `yaml:"no_proxy,omitempty"`
}

// RateLimitingConfig bounds requests per scorer endpoint
type RateLimitingConfig struct {
	RequestsPerSecond float64             `yaml:"requests_per_second"`
	BurstSize         int                 `yaml:"burst_size"`
	Hosts             map[string]HostRate `yaml:"hosts,omitempty"` // Per-host overrides keyed by host[:port]
}

// HostRate paces one endpoint host. A non-positive rate means unlimited.
type HostRate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// CacheConfig controls score memoization
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// InputField declares one extracted field in config form
type InputField struct {
	Name string `yaml:"name"`
	Path string `yaml:"path,omitempty"`
	Kind string `yaml:"kind,omitempty"`
}

// InputConfig controls reading of line-separated JSON dumps
type InputConfig struct {
	Prefix     string       `yaml:"prefix"`
	Separator  string       `yaml:"separator"`
	MaxRecords int          `yaml:"max_records"`
	Fields     []InputField `yaml:"fields"`
}

// FilterConfig selects the filter stages
type FilterConfig struct {
	Basic          bool     `yaml:"basic"`
	PublicOnly     bool     `yaml:"public_only"`
	EditorialOnly  bool     `yaml:"editorial_only"`
	Languages      []string `yaml:"languages"`
	LabeledFields  []string `yaml:"labeled_fields"`
	MinTextLength  int      `yaml:"min_text_length"`
	TextFields     []string `yaml:"text_fields"`
	TestDataLabels []string `yaml:"test_data_labels"`
	Expressions    []string `yaml:"expressions"`
}

// TransformConfig selects the value-normalization stages
type TransformConfig struct {
	Dropped    map[string][]string          `yaml:"dropped"`
	Remapped   map[string]map[string]string `yaml:"remapped"`
	StripHTML  []string                     `yaml:"strip_html"`
	TextTarget string                       `yaml:"text_target"`
}

// OutputConfig controls result export
type OutputConfig struct {
	Path          string `yaml:"path"`
	Format        string `yaml:"format"` // json, jsonl
	IncludeRecord bool   `yaml:"include_record"`
	EvaluateField string `yaml:"evaluate_field,omitempty"`
	Verbose       bool   `yaml:"-"`
}

// Common metadata field names
const (
	FieldID          = "nodeRef.id"
	FieldTitle       = "properties.cclom:title"
	FieldDescription = "properties.cclom:general_description"
	FieldLanguage    = "properties.cclom:general_language"
	FieldKeywords    = "properties.cclom:general_keyword"
	FieldDiscipline  = "properties.ccm:taxonid"
	FieldCollections = "collections.properties.cm:title"
	FieldTestData    = "test_data"
	FieldText        = "text"

	FieldProtocol              = "nodeRef.storeRef.protocol"
	FieldType                  = "type"
	FieldMetadataset           = "properties.cm:edu_metadataset"
	FieldAspects               = "aspects"
	FieldPermissions           = "permissions.Read"
	FieldCollectionPermissions = "collections.permissions.Read"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			IDField: FieldID,
			TopK:    3,
			Workers: 1,
		},
		Thresholds: Thresholds{
			HighConfidence: 0.8,
			Coverage:       0.7,
			Min:            0.1,
		},
		Scorer: ScorerConfig{
			Kind:        "joint",
			Backend:     "lexicon",
			TextFields:  []string{FieldText},
			Normalize:   "softmax",
			Temperature: 0.1,
			Threshold:   0.5,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			MaxTokens: 300,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Input: InputConfig{
			Prefix:    "_source",
			Separator: ".",
			Fields: []InputField{
				{Name: FieldID, Kind: "string"},
				{Name: FieldTitle, Kind: "string"},
				{Name: FieldDescription, Kind: "string"},
				{Name: FieldLanguage, Kind: "sequence"},
				{Name: FieldKeywords, Kind: "sequence"},
				{Name: FieldDiscipline, Kind: "sequence"},
				{Name: FieldCollections, Kind: "sequence"},
				{Name: FieldTestData, Kind: "sequence"},
				{Name: FieldProtocol, Kind: "string"},
				{Name: FieldType, Kind: "string"},
				{Name: FieldMetadataset, Kind: "string"},
				{Name: FieldAspects, Kind: "sequence"},
				{Name: FieldPermissions, Kind: "sequence"},
				{Name: FieldCollectionPermissions, Kind: "sequence"},
			},
		},
		Filters: FilterConfig{
			TextFields: []string{FieldTitle, FieldDescription},
		},
		Transforms: TransformConfig{
			Remapped: map[string]map[string]string{
				FieldLanguage: {
					"de_DE":   "de",
					"de_AT":   "de",
					"DE":      "de",
					"de-DE":   "de",
					"Deutsch": "de",
					"en_US":   "en",
					"en_GB":   "en",
				},
			},
			StripHTML:  []string{FieldDescription},
			TextTarget: FieldText,
		},
		Output: OutputConfig{
			Path:   "predictions.jsonl",
			Format: "jsonl",
		},
		LogLevel: "info",
	}
}

// Schema converts the configured input fields into a record schema
func (c *Config) Schema() (Schema, error) {
	schema := Schema{Separator: c.Input.Separator}
	for _, f := range c.Input.Fields {
		kind, err := ParseKind(f.Kind)
		if err != nil {
			return Schema{}, &ConfigurationError{Option: "input.fields." + f.Name, Reason: err.Error()}
		}
		schema.Fields = append(schema.Fields, FieldSpec{Name: f.Name, Path: f.Path, Kind: kind})
	}
	return schema, nil
}

// PipelineOptions returns the pipeline section with thresholds attached
func (c *Config) PipelineOptions() PipelineConfig {
	p := c.Pipeline
	p.Thresholds = c.Thresholds
	return p
}

// Validate checks option ranges
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if t := c.LLM.Temperature; math.IsNaN(t) || t < 0 || t > 2 {
		return &ConfigurationError{Option: "llm.temperature", Reason: fmt.Sprintf("must be in [0,2], got %g", t)}
	}
	if c.Pipeline.TopK < 1 {
		return &ConfigurationError{Option: "pipeline.top_k", Reason: fmt.Sprintf("must be >= 1, got %d", c.Pipeline.TopK)}
	}
	switch c.Scorer.Kind {
	case string(ScorerFlat), string(ScorerJoint):
	default:
		return &ConfigurationError{Option: "scorer.kind", Reason: fmt.Sprintf("unknown kind %q (supported: flat, joint)", c.Scorer.Kind)}
	}
	switch c.Output.Format {
	case "json", "jsonl":
	default:
		return &ConfigurationError{Option: "output.format", Reason: fmt.Sprintf("unknown format %q (supported: json, jsonl)", c.Output.Format)}
	}
	if _, err := c.Schema(); err != nil {
		return err
	}
	return nil
}

// Validate checks threshold ranges and ordering
func (t Thresholds) Validate() error {
	for _, th := range []struct {
		option string
		value  float64
	}{
		{"thresholds.high_confidence", t.HighConfidence},
		{"thresholds.coverage", t.Coverage},
		{"thresholds.min", t.Min},
	} {
		if math.IsNaN(th.value) || math.IsInf(th.value, 0) {
			return &ConfigurationError{Option: th.option, Reason: fmt.Sprintf("must be a finite number, got %g", th.value)}
		}
	}
	if t.HighConfidence <= 0 || t.HighConfidence > 1 {
		return &ConfigurationError{Option: "thresholds.high_confidence", Reason: fmt.Sprintf("must be in (0,1], got %g", t.HighConfidence)}
	}
	if t.Coverage <= 0 || t.Coverage > 1 {
		return &ConfigurationError{Option: "thresholds.coverage", Reason: fmt.Sprintf("must be in (0,1], got %g", t.Coverage)}
	}
	if t.Min < 0 || t.Min >= 1 {
		return &ConfigurationError{Option: "thresholds.min", Reason: fmt.Sprintf("must be in [0,1), got %g", t.Min)}
	}
	if t.Min >= t.Coverage {
		return &ConfigurationError{Option: "thresholds.min", Reason: fmt.Sprintf("must be below coverage (%g >= %g)", t.Min, t.Coverage)}
	}
	if t.Min >= t.HighConfidence {
		return &ConfigurationError{Option: "thresholds.min", Reason: fmt.Sprintf("must be below high_confidence (%g >= %g)", t.Min, t.HighConfidence)}
	}
	return nil
}
