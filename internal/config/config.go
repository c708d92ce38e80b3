package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Output formats understood by the report emitters.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// Config holds all run settings, populated from an optional YAML file and
// environment variables.
type Config struct {
	DataDir       string   `yaml:"data_dir"`
	ReportPattern string   `yaml:"report_pattern"`
	OutputBase    string   `yaml:"output_base"`
	OutputFormats []string `yaml:"output_formats"`

	Policy domain.Policy `yaml:"policy"`

	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	MetricsTextfile string `yaml:"metrics_textfile"`

	// Verdict publishing.
	KafkaEnabled bool     `yaml:"kafka_enabled"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		DataDir:       "data/cal_json",
		ReportPattern: "L*/*calibrator_summary.json",
		OutputBase:    "flagging_summary",
		OutputFormats: []string{FormatCSV, FormatXLSX, FormatPDF},
		Policy:        domain.DefaultPolicy(),
		LogLevel:      "info",
		LogFormat:     "text",
		KafkaBrokers:  []string{"localhost:9092"},
		KafkaTopic:    "calibrator-flagging-verdicts",
	}
}

// Load reads configuration, applying in order: defaults, the YAML file named
// by FLAGMETRICS_CONFIG, a local .env file, then environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()
	if path := os.Getenv("FLAGMETRICS_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	threshold, err := parseFloat("FLAG_THRESHOLD", cfg.Policy.FlagThreshold)
	if err != nil {
		return nil, err
	}
	minCore, err := parseInt("MIN_PASS_CORE", cfg.Policy.MinPassCore)
	if err != nil {
		return nil, err
	}
	minRemote, err := parseInt("MIN_PASS_REMOTE", cfg.Policy.MinPassRemote)
	if err != nil {
		return nil, err
	}
	minIntl, err := parseInt("MIN_PASS_INTERNATIONAL", cfg.Policy.MinPassInternational)
	if err != nil {
		return nil, err
	}

	cfg.DataDir = sharedcfg.EnvOrDefault("DATA_DIR", cfg.DataDir)
	cfg.ReportPattern = sharedcfg.EnvOrDefault("REPORT_PATTERN", cfg.ReportPattern)
	cfg.OutputBase = sharedcfg.EnvOrDefault("OUTPUT_BASE", cfg.OutputBase)
	cfg.OutputFormats = ParseFormats(sharedcfg.EnvOrDefault("OUTPUT_FORMATS", strings.Join(cfg.OutputFormats, ",")))
	cfg.Policy = domain.Policy{
		FlagThreshold:        threshold,
		MinPassCore:          minCore,
		MinPassRemote:        minRemote,
		MinPassInternational: minIntl,
	}
	cfg.LogLevel = sharedcfg.EnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = sharedcfg.EnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsTextfile = sharedcfg.EnvOrDefault("METRICS_TEXTFILE", cfg.MetricsTextfile)
	cfg.KafkaBrokers = sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", strings.Join(cfg.KafkaBrokers, ",")))
	cfg.KafkaTopic = sharedcfg.EnvOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings a run cannot proceed without. It is exported
// so command-line overrides can be checked after Load.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("DATA_DIR is required")
	}
	if c.OutputBase == "" {
		return errors.New("OUTPUT_BASE is required")
	}
	if len(c.OutputFormats) == 0 {
		return errors.New("OUTPUT_FORMATS must name at least one format")
	}
	for _, f := range c.OutputFormats {
		switch f {
		case FormatCSV, FormatXLSX, FormatPDF:
		default:
			return fmt.Errorf("OUTPUT_FORMATS: unknown format %q", f)
		}
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("threshold settings: %w", err)
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, lower-casing entries and
// dropping blanks and duplicates.
func ParseFormats(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		f := strings.ToLower(strings.TrimSpace(part))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read FLAGMETRICS_CONFIG: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse FLAGMETRICS_CONFIG %s: %w", path, err)
	}
	return nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
