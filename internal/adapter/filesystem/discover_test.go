package filesystem

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPattern = "L*/*calibrator_summary.json"

func touch(t *testing.T, root string, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	return path
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	p1 := touch(t, root, "L785747", "3C196_L785747_calibrator_summary.json")
	p2 := touch(t, root, "L700001", "3C48_L700001_calibrator_summary.json")
	p3 := touch(t, root, "L812345", "3C196_L812345_calibrator_summary.json")
	touch(t, root, "L812345", "3C196_L812345_target_summary.json")
	touch(t, root, "misc", "3C295_misc_calibrator_summary.json")

	var logs bytes.Buffer
	d := NewDiscoverer(root, testPattern, slog.New(slog.NewTextHandler(&logs, nil)))

	files, err := d.Discover()
	require.NoError(t, err)

	assert.Equal(t, []domain.ObservationFile{
		{ObservationID: "L700001", Calibrator: "3C48", Path: p2},
		{ObservationID: "L785747", Calibrator: "3C196", Path: p1},
		{ObservationID: "L812345", Calibrator: "3C196", Path: p3},
	}, files)
	assert.Contains(t, logs.String(), "calibrator=3C196 observations=2")
	assert.Contains(t, logs.String(), "files=3")
}

func TestDiscover_EmptyDir(t *testing.T) {
	d := NewDiscoverer(t.TempDir(), testPattern, slog.Default())
	files, err := d.Discover()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path     string
		expected domain.ObservationFile
	}{
		{
			path:     "/data/cal_json/L785747/3C196_L785747_calibrator_summary.json",
			expected: domain.ObservationFile{ObservationID: "L785747", Calibrator: "3C196", Path: "/data/cal_json/L785747/3C196_L785747_calibrator_summary.json"},
		},
		{
			path:     "L1/CasA.json",
			expected: domain.ObservationFile{ObservationID: "L1", Calibrator: "CasA.json", Path: "L1/CasA.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePath(tt.path))
		})
	}
}
