/*
PURPOSE:
  Defines the configuration structure and loading logic for rag-arena.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Configure both backends, the judge, timeouts, parallelism, metric set.
  - Credentials come from the environment, never from the YAML file.

  Implementation-discovered:
  - Needs YAML parsing plus environment overrides (DUST_*, GRAPHRAG_*,
    OPENAI_*, ENABLE_LLM_JUDGE, TIMEOUT_SECONDS, PARALLEL_WORKERS).
  - Required-setting check must report every missing variable at once,
    not fail on the first.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/metrics
  - Dependencies: gopkg.in/yaml.v3

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing config file falls back to defaults.
  - Validate() aggregates all missing required settings into one error.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (e.g. 30s timeout, 8 workers).

USAGE:
  cfg, err := config.Load("rag_arena.yaml")

RELATED FILES:
  - internal/cli/run.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DustConfig holds settings for the conversational (Dust) backend.
type DustConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"-"` // DUST_API_KEY only
	WorkspaceID string `yaml:"workspace_id"`
	AgentID     string `yaml:"agent_id"`
}

// GraphRAGConfig holds settings for the graph-retrieval backend.
type GraphRAGConfig struct {
	APIURL string `yaml:"api_url"`
	Mode   string `yaml:"mode"`    // "local" or "global"
	BookID string `yaml:"book_id"` // optional default scope
}

// JudgeConfig holds settings for the LLM-as-judge metric.
type JudgeConfig struct {
	Enable bool   `yaml:"enable"`
	Model  string `yaml:"model"`
	APIKey string `yaml:"-"` // OPENAI_API_KEY only
}

// Config represents the full configuration for rag-arena.
type Config struct {
	Dust     DustConfig     `yaml:"dust"`
	GraphRAG GraphRAGConfig `yaml:"graphrag"`
	Judge    JudgeConfig    `yaml:"judge"`

	// Durations are configured as plain numbers (timeout_seconds,
	// poll_interval_ms); yaml.v3 has no native duration-string support.
	Timeout         time.Duration `yaml:"-"`
	PollInterval    time.Duration `yaml:"-"`
	TimeoutSeconds  float64       `yaml:"timeout_seconds"`
	PollIntervalMs  int           `yaml:"poll_interval_ms"`
	ParallelWorkers int           `yaml:"parallel_workers"`
	// QPS caps the per-system query rate. 0 disables the limiter.
	QPS       float64  `yaml:"qps"`
	Metrics   []string `yaml:"metrics"`
	OutputDir string   `yaml:"output_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Dust: DustConfig{
			BaseURL: "https://dust.tt/api/v1",
			AgentID: "beTfWHdTC6",
		},
		GraphRAG: GraphRAGConfig{
			APIURL: "https://reconciliation-api-production.up.railway.app",
			Mode:   "local",
		},
		Judge: JudgeConfig{
			Model: "gpt-4o-mini",
		},
		Timeout:         30 * time.Second,
		PollInterval:    500 * time.Millisecond,
		ParallelWorkers: 8,
		Metrics:         []string{"contains", "latency", "status"},
		OutputDir:       ".",
	}
}

// Load reads configuration from a file and applies environment overrides.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		defaults := []string{"rag_arena.yaml", "rag-arena.yaml"}
		found := false
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name // record which file we loaded
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnv()
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	}
	if cfg.PollIntervalMs > 0 {
		cfg.PollInterval = time.Duration(cfg.PollIntervalMs) * time.Millisecond
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers environment variables over the loaded configuration.
// Credentials are environment-only; everything else is an override.
func (c *Config) applyEnv() {
	c.Dust.APIKey = os.Getenv("DUST_API_KEY")
	c.Judge.APIKey = os.Getenv("OPENAI_API_KEY")

	setString(&c.Dust.WorkspaceID, "DUST_WORKSPACE_ID")
	setString(&c.Dust.AgentID, "DUST_AGENT_ID")
	setString(&c.Dust.BaseURL, "DUST_BASE_URL")
	setString(&c.GraphRAG.APIURL, "GRAPHRAG_API_URL")
	setString(&c.GraphRAG.Mode, "GRAPHRAG_MODE")
	setString(&c.GraphRAG.BookID, "GRAPHRAG_BOOK_ID")
	setString(&c.Judge.Model, "OPENAI_MODEL")

	if v := os.Getenv("ENABLE_LLM_JUDGE"); v != "" {
		c.Judge.Enable = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			c.Timeout = time.Duration(secs * float64(time.Second))
		}
	}
	if v := os.Getenv("PARALLEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ParallelWorkers = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks required settings. Every missing setting is reported in a
// single error so the user fixes them in one pass.
func (c *Config) Validate() error {
	var missing []string
	if c.Dust.APIKey == "" {
		missing = append(missing, "DUST_API_KEY")
	}
	if c.Dust.WorkspaceID == "" {
		missing = append(missing, "DUST_WORKSPACE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []string {
	var warnings []string

	if c.Judge.Enable && c.Judge.APIKey == "" {
		warnings = append(warnings, "LLM judge enabled but OPENAI_API_KEY not set; running without it")
	}
	if c.Timeout < 5*time.Second {
		warnings = append(warnings, fmt.Sprintf("timeout %s may be too short for RAG queries", c.Timeout))
	}
	if len(c.Metrics) == 0 {
		warnings = append(warnings, "no metrics configured - at least one metric recommended")
	}

	return warnings
}
