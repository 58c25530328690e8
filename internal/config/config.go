package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/teambition/rrule-go"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/recurrence"
)

// EnvPrefix marks environment variables that override file settings.
// SHIFTWISE_OPTIMIZER__MAXITERATIONS sets optimizer.maxIterations.
const EnvPrefix = "SHIFTWISE_"

// Defaults applied by SetDefaults
const (
	DefaultLogDir        = "logs"
	DefaultLogLevel      = "info"
	DefaultMaxIterations = 50
	DefaultAlternatives  = 5
)

// LoggingConfig controls log output
type LoggingConfig struct {
	Dir   string `json:"dir"`
	Level string `json:"level" validate:"omitempty,oneof=debug info warn error"`
}

// SolverConfig controls the greedy solver
type SolverConfig struct {
	AllowMultipleAssignments bool `json:"allowMultipleAssignments"`
}

// OptimizerConfig controls local search. A negative MaxIterations skips optimization.
type OptimizerConfig struct {
	MaxIterations int `json:"maxIterations" validate:"max=10000"`
}

// ExplanationConfig controls assignment explanations
type ExplanationConfig struct {
	Alternatives int `json:"alternatives" validate:"min=1,max=5"`
}

// DatabaseConfig points at the plan store. An empty URL disables persistence.
type DatabaseConfig struct {
	URL string `json:"url" validate:"omitempty,url"`
}

// SheetsConfig configures plan publishing
type SheetsConfig struct {
	SpreadsheetID   string `json:"spreadsheetID"`
	CredentialsFile string `json:"credentialsFile" validate:"required_with=SpreadsheetID"`
}

// MetricsConfig configures the metrics textfile written after each command
type MetricsConfig struct {
	TextfilePath string `json:"textfilePath"`
}

// Config represents the application configuration
type Config struct {
	Environment    string                     `json:"environment"`
	Logging        LoggingConfig              `json:"logging"`
	Solver         SolverConfig               `json:"solver"`
	Optimizer      OptimizerConfig            `json:"optimizer"`
	Explanation    ExplanationConfig          `json:"explanation"`
	Database       DatabaseConfig             `json:"database"`
	Sheets         SheetsConfig               `json:"sheets"`
	Metrics        MetricsConfig              `json:"metrics"`
	DemandPatterns []recurrence.DemandPattern `json:"demandPatterns,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadFromPath loads, defaults and validates the configuration from a YAML or
// JSON file, then applies SHIFTWISE_ environment overrides
func LoadFromPath(path string) (*Config, error) {
	k := koanf.New(".")

	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyMapper(k.Keys())), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.SetDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKeyMapper maps SHIFTWISE_OPTIMIZER__MAXITERATIONS to optimizer.maxIterations.
// Environment names are case-insensitive, so keys already present in the file
// keep their spelling and known struct fields fall back to their json tag.
func envKeyMapper(fileKeys []string) func(string) string {
	canonical := make(map[string]string)
	for _, key := range knownKeys() {
		canonical[strings.ToLower(key)] = key
	}
	for _, key := range fileKeys {
		canonical[strings.ToLower(key)] = key
	}
	return func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		s = strings.ReplaceAll(s, "__", ".")
		if key, ok := canonical[s]; ok {
			return key
		}
		return s
	}
}

// knownKeys lists the dotted json paths of the scalar settings
func knownKeys() []string {
	return []string{
		"environment",
		"logging.dir", "logging.level",
		"solver.allowMultipleAssignments",
		"optimizer.maxIterations",
		"explanation.alternatives",
		"database.url",
		"sheets.spreadsheetID", "sheets.credentialsFile",
		"metrics.textfilePath",
	}
}

// SetDefaults fills unset values
func (c *Config) SetDefaults() {
	if c.Logging.Dir == "" {
		c.Logging.Dir = DefaultLogDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Optimizer.MaxIterations == 0 {
		c.Optimizer.MaxIterations = DefaultMaxIterations
	}
	if c.Explanation.Alternatives == 0 {
		c.Explanation.Alternatives = DefaultAlternatives
	}
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Validate rrule syntax for each demand pattern
	for i, pattern := range cfg.DemandPatterns {
		if _, err := rrule.StrToRRule(pattern.RRule); err != nil {
			return fmt.Errorf("invalid rrule in demandPatterns[%d]: %w", i, err)
		}
	}

	return nil
}
