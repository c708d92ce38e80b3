package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigFile = `
data_dir: /archive/cal_json
output_base: spring_cycle
output_formats: [csv]
policy:
  flag_threshold: 60
  min_pass_core: 35
  min_pass_remote: 8
  min_pass_international: 5
log_level: debug
`

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flagmetrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/cal_json", cfg.DataDir)
	assert.Equal(t, "L*/*calibrator_summary.json", cfg.ReportPattern)
	assert.Equal(t, "flagging_summary", cfg.OutputBase)
	assert.Equal(t, []string{"csv", "xlsx", "pdf"}, cfg.OutputFormats)
	assert.Equal(t, domain.DefaultPolicy(), cfg.Policy)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "calibrator-flagging-verdicts", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/data/lofar/cal_json")
	t.Setenv("REPORT_PATTERN", "L*/*_summary.json")
	t.Setenv("OUTPUT_BASE", "run42")
	t.Setenv("OUTPUT_FORMATS", "CSV, pdf,csv")
	t.Setenv("FLAG_THRESHOLD", "55.5")
	t.Setenv("MIN_PASS_CORE", "30")
	t.Setenv("MIN_PASS_REMOTE", "7")
	t.Setenv("MIN_PASS_INTERNATIONAL", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/flagmetrics.prom")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "verdicts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/lofar/cal_json", cfg.DataDir)
	assert.Equal(t, "L*/*_summary.json", cfg.ReportPattern)
	assert.Equal(t, "run42", cfg.OutputBase)
	assert.Equal(t, []string{"csv", "pdf"}, cfg.OutputFormats)
	assert.Equal(t, domain.Policy{FlagThreshold: 55.5, MinPassCore: 30, MinPassRemote: 7, MinPassInternational: 3}, cfg.Policy)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/var/lib/node_exporter/flagmetrics.prom", cfg.MetricsTextfile)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "verdicts", cfg.KafkaTopic)
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("FLAGMETRICS_CONFIG", writeConfigFile(t, testConfigFile))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/archive/cal_json", cfg.DataDir)
	assert.Equal(t, "spring_cycle", cfg.OutputBase)
	assert.Equal(t, []string{"csv"}, cfg.OutputFormats)
	assert.Equal(t, domain.Policy{FlagThreshold: 60, MinPassCore: 35, MinPassRemote: 8, MinPassInternational: 5}, cfg.Policy)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "L*/*calibrator_summary.json", cfg.ReportPattern, "unset keys keep defaults")
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	t.Setenv("FLAGMETRICS_CONFIG", writeConfigFile(t, testConfigFile))
	t.Setenv("MIN_PASS_CORE", "44")
	t.Setenv("OUTPUT_BASE", "override")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 44, cfg.Policy.MinPassCore)
	assert.Equal(t, 60.0, cfg.Policy.FlagThreshold)
	assert.Equal(t, "override", cfg.OutputBase)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("FLAGMETRICS_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FLAGMETRICS_CONFIG")
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	t.Setenv("FLAGMETRICS_CONFIG", writeConfigFile(t, "policy: [not, a, map"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FLAGMETRICS_CONFIG")
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Setenv("FLAG_THRESHOLD", "seventy")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FLAG_THRESHOLD")
}

func TestLoad_ThresholdOutOfRange(t *testing.T) {
	t.Setenv("FLAG_THRESHOLD", "120")
	_, err := Load()
	require.ErrorIs(t, err, domain.ErrInvalidPolicy)
}

func TestLoad_InvalidMinPass(t *testing.T) {
	t.Setenv("MIN_PASS_REMOTE", "ten")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_PASS_REMOTE")
}

func TestLoad_NegativeMinPass(t *testing.T) {
	t.Setenv("MIN_PASS_INTERNATIONAL", "-1")
	_, err := Load()
	require.ErrorIs(t, err, domain.ErrInvalidPolicy)
}

func TestLoad_UnknownFormat(t *testing.T) {
	t.Setenv("OUTPUT_FORMATS", "csv,png")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "png")
}

func TestLoad_KafkaEnabledWithoutTopic(t *testing.T) {
	t.Setenv("FLAGMETRICS_CONFIG", writeConfigFile(t, "kafka_enabled: true\nkafka_topic: \"\"\n"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_TOPIC")
}

func TestParseFormats(t *testing.T) {
	assert.Equal(t, []string{"xlsx", "csv"}, ParseFormats(" XLSX ,, csv,xlsx"))
	assert.Empty(t, ParseFormats(""))
}
