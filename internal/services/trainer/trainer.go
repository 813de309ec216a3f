// Package trainer fits one profitability model per horizon from the labeled
// snapshot history and publishes the result as a versioned artifact.
package trainer

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/ml"
	"github.com/soulSw0rd/business-reporting/internal/services/features"
	"github.com/soulSw0rd/business-reporting/internal/storage/models"
)

// ErrInsufficientData reports that the labeled history is still too small to
// train a model worth serving.
var ErrInsufficientData = errors.New("not enough labeled snapshots to train")

// Config carries the training hyperparameters.
type Config struct {
	MinSamples   int
	TestFraction float64
	Seed         int64
	Trees        int
	MaxDepth     int
}

func (c Config) withDefaults() Config {
	if c.MinSamples <= 0 {
		c.MinSamples = 50
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		c.TestFraction = 0.2
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Trees <= 0 {
		c.Trees = 100
	}
	return c
}

// SnapshotStore is the slice of the snapshot store the trainer reads.
type SnapshotStore interface {
	Labeled(horizonDays int) []domain.Snapshot
}

// ArtifactStore persists fitted models.
type ArtifactStore interface {
	Save(artifact models.Artifact) error
}

// Trainer turns labeled snapshots into model artifacts.
type Trainer struct {
	cfg       Config
	snapshots SnapshotStore
	artifacts ArtifactStore
	builder   *features.Builder
	logger    *zap.Logger
	now       func() time.Time
}

func New(cfg Config, snapshots SnapshotStore, artifacts ArtifactStore, logger *zap.Logger) *Trainer {
	return &Trainer{
		cfg:       cfg.withDefaults(),
		snapshots: snapshots,
		artifacts: artifacts,
		builder:   features.NewBuilder(),
		logger:    logger,
		now:       time.Now,
	}
}

// Train fits and persists a model for the horizon. The evaluation protocol is
// fixed: stratified 80/20 split, scaler fit on the training split only,
// accuracy and ROC AUC measured on the held-out split, then the artifact is
// saved. Returns ErrInsufficientData when the labeled history is too small.
func (t *Trainer) Train(horizonDays int) (domain.TrainingReport, error) {
	labeled := t.snapshots.Labeled(horizonDays)
	if len(labeled) < t.cfg.MinSamples {
		return domain.TrainingReport{}, errors.Wrapf(ErrInsufficientData,
			"horizon %dd: %d labeled rows, need %d", horizonDays, len(labeled), t.cfg.MinSamples)
	}

	x := make([][]float64, len(labeled))
	y := make([]int, len(labeled))
	for i, snap := range labeled {
		x[i] = t.builder.FromSnapshot(snap)
		if label := snap.Label(horizonDays); label != nil && label.Profitable {
			y[i] = 1
		}
	}

	xTrain, xTest, yTrain, yTest, err := ml.StratifiedSplit(x, y, t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		return domain.TrainingReport{}, errors.Wrap(err, "split training data")
	}

	scaler, err := ml.FitScaler(xTrain)
	if err != nil {
		return domain.TrainingReport{}, errors.Wrap(err, "fit scaler")
	}
	xTrainScaled, err := scaler.TransformAll(xTrain)
	if err != nil {
		return domain.TrainingReport{}, err
	}
	xTestScaled, err := scaler.TransformAll(xTest)
	if err != nil {
		return domain.TrainingReport{}, err
	}

	forest, err := ml.TrainForest(ml.ForestConfig{
		Trees:    t.cfg.Trees,
		MaxDepth: t.cfg.MaxDepth,
		Seed:     t.cfg.Seed,
	}, xTrainScaled, yTrain)
	if err != nil {
		return domain.TrainingReport{}, errors.Wrap(err, "train forest")
	}

	preds := make([]int, len(xTestScaled))
	scores := make([]float64, len(xTestScaled))
	for i, row := range xTestScaled {
		scores[i], err = forest.PredictProba(row)
		if err != nil {
			return domain.TrainingReport{}, err
		}
		if scores[i] >= 0.5 {
			preds[i] = 1
		}
	}
	accuracy := ml.Accuracy(yTest, preds)
	auc := ml.ROCAUC(yTest, scores)

	schema := t.builder.Schema()
	importances := make(map[string]float64, len(forest.Importances))
	for i, name := range schema.Names() {
		if i < len(forest.Importances) {
			importances[name] = forest.Importances[i]
		}
	}

	trainedAt := t.now().UTC()
	metadata := domain.ModelMetadata{
		Version:            models.NewVersion(trainedAt),
		HorizonDays:        horizonDays,
		TrainingDate:       trainedAt,
		TrainingSamples:    len(labeled),
		FeatureColumns:     schema.Names(),
		SchemaVersion:      schema.Version,
		Accuracy:           accuracy,
		ROCAUC:             auc,
		FeatureImportances: importances,
	}

	if err := t.artifacts.Save(models.Artifact{
		Metadata: metadata,
		Model:    *forest,
		Scaler:   *scaler,
	}); err != nil {
		return domain.TrainingReport{}, errors.Wrap(err, "persist model artifact")
	}

	t.logger.Info("model trained",
		zap.Int("horizon_days", horizonDays),
		zap.String("version", metadata.Version),
		zap.Int("samples", len(labeled)),
		zap.Float64("accuracy", accuracy),
		zap.Float64("roc_auc", auc))

	return domain.TrainingReport{
		HorizonDays:        horizonDays,
		Version:            metadata.Version,
		Accuracy:           accuracy,
		ROCAUC:             auc,
		SamplesCount:       len(labeled),
		FeatureImportances: importances,
	}, nil
}
