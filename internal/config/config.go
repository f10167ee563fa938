package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the coursesearch configuration.
type Config struct {
	Elasticsearch ElasticsearchConfig     `yaml:"elasticsearch"`
	Cache         CacheConfig             `yaml:"cache"`
	Discovery     DiscoveryConfig         `yaml:"discovery"`
	FieldMappings map[string]FieldMapping `yaml:"field_mappings"`
	Logging       LoggingConfig           `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// ElasticsearchConfig holds search backend connection settings.
type ElasticsearchConfig struct {
	URL          string `yaml:"url"`
	Index        string `yaml:"index"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	MaxBatchSize int    `yaml:"max_batch_size"`
}

// CacheConfig holds schema-mapping cache store settings.
type CacheConfig struct {
	Driver   string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// DiscoveryConfig holds course-discovery request shaping settings.
type DiscoveryConfig struct {
	FilterFields              []string `yaml:"filter_fields"`
	FacetSize                 int      `yaml:"facet_size"`
	SearchFields              []string `yaml:"search_fields"`
	SkipEnrollmentStartFilter bool     `yaml:"skip_enrollment_start_filter"`
}

// FieldMapping overrides the inferred schema declaration for one field.
type FieldMapping struct {
	Type   string `yaml:"type"`
	Index  string `yaml:"index"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = "courseware_index"
	}
	if c.Elasticsearch.TimeoutSec <= 0 {
		c.Elasticsearch.TimeoutSec = 10
	}
	if c.Elasticsearch.MaxBatchSize <= 0 {
		c.Elasticsearch.MaxBatchSize = 100
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if len(c.Discovery.FilterFields) == 0 {
		c.Discovery.FilterFields = []string{
			"org", "language", "modes",
			"classification", "subclassification", "availability",
		}
	}
	if c.Discovery.FacetSize <= 0 {
		c.Discovery.FacetSize = 300
	}
	if len(c.Discovery.SearchFields) == 0 {
		c.Discovery.SearchFields = []string{"org"}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Elasticsearch.URL == "" {
		return fmt.Errorf("elasticsearch.url is required")
	}
	switch c.Cache.Driver {
	case "memory":
		// ok
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be \"memory\" or \"redis\", got %q", c.Cache.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
