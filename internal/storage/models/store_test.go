package models

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/ml"
)

func testArtifact(t *testing.T, version string, horizonDays int) Artifact {
	t.Helper()

	rng := rand.New(rand.NewSource(1))
	x := make([][]float64, 60)
	y := make([]int, 60)
	for i := range x {
		x[i] = []float64{rng.NormFloat64(), rng.NormFloat64()}
		if x[i][0] > 0 {
			y[i] = 1
		}
	}

	forest, err := ml.TrainForest(ml.ForestConfig{Trees: 3, MaxDepth: 3, Seed: 1}, x, y)
	require.NoError(t, err)
	scaler, err := ml.FitScaler(x)
	require.NoError(t, err)

	return Artifact{
		Metadata: domain.ModelMetadata{
			Version:         version,
			HorizonDays:     horizonDays,
			TrainingDate:    time.Now().UTC(),
			TrainingSamples: len(x),
			FeatureColumns:  []string{"a", "b"},
			SchemaVersion:   "v1",
			Accuracy:        0.9,
			ROCAUC:          0.95,
		},
		Model:  *forest,
		Scaler: *scaler,
	}
}

func TestSaveAndLoadLatest(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5)
	require.NoError(t, err)

	require.NoError(t, store.Save(testArtifact(t, NewVersion(time.Now()), 7)))

	loaded, err := store.LoadLatest(7)
	require.NoError(t, err)
	require.Equal(t, 7, loaded.Metadata.HorizonDays)
	require.Equal(t, []string{"a", "b"}, loaded.Metadata.FeatureColumns)

	p, err := loaded.Model.PredictProba([]float64{1.5, 0})
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
	require.LessOrEqual(t, p, 1.0)
}

func TestLoadLatestPicksNewestVersion(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5)
	require.NoError(t, err)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	old := testArtifact(t, NewVersion(base), 7)
	old.Metadata.Accuracy = 0.5
	require.NoError(t, store.Save(old))

	newer := testArtifact(t, NewVersion(base.Add(time.Hour)), 7)
	newer.Metadata.Accuracy = 0.8
	require.NoError(t, store.Save(newer))

	loaded, err := store.LoadLatest(7)
	require.NoError(t, err)
	require.InDelta(t, 0.8, loaded.Metadata.Accuracy, 1e-9)
}

func TestHorizonsAreIsolated(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5)
	require.NoError(t, err)

	require.NoError(t, store.Save(testArtifact(t, NewVersion(time.Now()), 7)))

	_, err = store.LoadLatest(30)
	require.ErrorIs(t, err, ErrNoArtifact)
}

func TestLoadLatestNoArtifact(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5)
	require.NoError(t, err)

	_, err = store.LoadLatest(7)
	require.ErrorIs(t, err, ErrNoArtifact)
}

func TestSavePrunesOldVersions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 2)
	require.NoError(t, err)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Save(testArtifact(t, NewVersion(base.Add(time.Duration(i)*time.Hour)), 7)))
	}

	entries, err := os.ReadDir(filepath.Join(dir, "7d"))
	require.NoError(t, err)
	require.Len(t, entries, 2, "only the newest versions survive pruning")
}

func TestLoadSkipsIncompleteVersion(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 5)
	require.NoError(t, err)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	good := testArtifact(t, NewVersion(base), 7)
	require.NoError(t, store.Save(good))

	// a directory missing its files, as after an interrupted external copy
	broken := filepath.Join(dir, "7d", NewVersion(base.Add(time.Hour)))
	require.NoError(t, os.MkdirAll(broken, 0o755))

	loaded, err := store.LoadLatest(7)
	require.NoError(t, err)
	require.Equal(t, good.Metadata.Version, loaded.Metadata.Version)
}
