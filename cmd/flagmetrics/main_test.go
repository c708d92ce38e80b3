package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/cal-flagging-metrics/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodSummary = `{"metrics":{"LINC":{"field_name":"3C196","stations":[
	{"station":"CS001HBA0","percentage_flagged":{"final":5}},
	{"station":"RS205HBA","percentage_flagged":{"final":5}},
	{"station":"DE601HBA","percentage_flagged":{"final":5}}]}}}`

func setupRun(t *testing.T) (dataDir, outBase string) {
	t.Helper()
	dataDir = t.TempDir()
	outBase = filepath.Join(t.TempDir(), "summary")
	t.Setenv("FLAGMETRICS_CONFIG", "")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("OUTPUT_BASE", outBase)
	t.Setenv("OUTPUT_FORMATS", "csv")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("METRICS_TEXTFILE", "")
	writeObs(t, dataDir, "L100", "3C196_L100_calibrator_summary.json", goodSummary)
	return dataDir, outBase
}

func writeObs(t *testing.T, dataDir, obsID, name, body string) {
	t.Helper()
	dir := filepath.Join(dataDir, obsID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	var stderr bytes.Buffer

	strict, err := applyFlags(&cfg, []string{
		"-data-dir", "/tmp/cal", "-formats", "CSV, pdf", "-threshold", "55.5",
		"-min-core", "20", "-min-intl", "3", "-strict",
	}, &stderr)
	require.NoError(t, err)

	assert.True(t, strict)
	assert.Equal(t, "/tmp/cal", cfg.DataDir)
	assert.Equal(t, []string{"csv", "pdf"}, cfg.OutputFormats)
	assert.InDelta(t, 55.5, cfg.Policy.FlagThreshold, 1e-9)
	assert.Equal(t, 20, cfg.Policy.MinPassCore)
	assert.Equal(t, 10, cfg.Policy.MinPassRemote)
	assert.Equal(t, 3, cfg.Policy.MinPassInternational)
}

func TestApplyFlags_UnexpectedArgs(t *testing.T) {
	cfg := config.Default()
	_, err := applyFlags(&cfg, []string{"extra"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRun_Help(t *testing.T) {
	setupRun(t)
	var stderr bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"-h"}, &stderr))
	assert.Contains(t, stderr.String(), "-threshold")
}

func TestRun_WritesReport(t *testing.T) {
	_, outBase := setupRun(t)

	code := run(nil, &bytes.Buffer{})
	assert.Equal(t, exitOK, code)

	data, err := os.ReadFile(outBase + ".csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "L100,3C196,")
}

func TestRun_StrictWithSkippedObservation(t *testing.T) {
	dataDir, _ := setupRun(t)
	writeObs(t, dataDir, "L200", "3C48_L200_calibrator_summary.json", `{"metrics":`)

	assert.Equal(t, exitOK, run(nil, &bytes.Buffer{}))
	assert.Equal(t, exitSkipped, run([]string{"-strict"}, &bytes.Buffer{}))
}

func TestRun_InvalidThreshold(t *testing.T) {
	setupRun(t)
	assert.Equal(t, exitError, run([]string{"-threshold", "120"}, &bytes.Buffer{}))
}
