package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFromFileFillsDefaults(t *testing.T) {
	cfg, err := FromFile(writeConfig(t, "listen_addr: \":9090\"\n"))
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, []int{7, 30}, cfg.Horizons)
	require.Equal(t, 50, cfg.Training.MinSamples)
	require.Equal(t, int64(42), cfg.Training.Seed)
	require.Equal(t, 0.6, cfg.Thresholds.Strong)
	require.Equal(t, 10, cfg.RetrainThreshold)
}

func TestFromFileOverrides(t *testing.T) {
	cfg, err := FromFile(writeConfig(t, `
data_dir: /var/lib/tracker/wal
horizons: [7]
retrain_threshold: 25
training:
  min_samples: 100
  trees: 200
confidence_thresholds:
  strong: 0.7
  weak: 0.3
`))
	require.NoError(t, err)

	require.Equal(t, "/var/lib/tracker/wal", cfg.DataDir)
	require.Equal(t, []int{7}, cfg.Horizons)
	require.Equal(t, 25, cfg.RetrainThreshold)
	require.Equal(t, 100, cfg.Training.MinSamples)
	require.Equal(t, 200, cfg.Training.Trees)
	require.Equal(t, 0.7, cfg.Thresholds.Strong)
	require.Equal(t, 0.2, cfg.Training.TestFraction, "unset nested fields keep defaults")
}

func TestFromFileRejectsBadValues(t *testing.T) {
	_, err := FromFile(writeConfig(t, "horizons: [14]\n"))
	require.Error(t, err)

	_, err = FromFile(writeConfig(t, "confidence_thresholds:\n  strong: 0.3\n  weak: 0.5\n"))
	require.Error(t, err)

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
