// Package predictor serves profitability probabilities from the latest
// persisted model artifacts. Inference never refits anything: the scaler and
// the forest come out of the artifact exactly as training left them.
package predictor

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/services/features"
	"github.com/soulSw0rd/business-reporting/internal/storage/models"
)

// ErrModelNotTrained reports that the horizon has no usable artifact yet.
var ErrModelNotTrained = errors.New("model not trained for this horizon")

// ArtifactStore loads persisted models.
type ArtifactStore interface {
	LoadLatest(horizonDays int) (models.Artifact, error)
}

// Predictor runs inference for one or both horizons.
type Predictor struct {
	artifacts  ArtifactStore
	builder    *features.Builder
	thresholds domain.ConfidenceThresholds
	logger     *zap.Logger
	now        func() time.Time
}

func New(artifacts ArtifactStore, thresholds domain.ConfidenceThresholds, logger *zap.Logger) *Predictor {
	if thresholds.Strong == 0 && thresholds.Weak == 0 {
		thresholds = domain.DefaultConfidenceThresholds()
	}
	return &Predictor{
		artifacts:  artifacts,
		builder:    features.NewBuilder(),
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// PredictVector scores a prepared feature vector against one horizon's model.
func (p *Predictor) PredictVector(horizonDays int, vector []float64) (domain.HorizonPrediction, error) {
	artifact, err := p.artifacts.LoadLatest(horizonDays)
	if errors.Is(err, models.ErrNoArtifact) {
		return domain.HorizonPrediction{}, errors.Wrapf(ErrModelNotTrained, "horizon %dd", horizonDays)
	}
	if err != nil {
		return domain.HorizonPrediction{}, errors.Wrap(err, "load model artifact")
	}

	if err := p.builder.Validate(artifact.Metadata.FeatureColumns); err != nil {
		return domain.HorizonPrediction{}, errors.Wrapf(err, "model version %s", artifact.Metadata.Version)
	}

	scaled, err := artifact.Scaler.Transform(vector)
	if err != nil {
		return domain.HorizonPrediction{}, errors.Wrap(err, "scale features")
	}
	probability, err := artifact.Model.PredictProba(scaled)
	if err != nil {
		return domain.HorizonPrediction{}, errors.Wrap(err, "score features")
	}

	return domain.HorizonPrediction{
		HorizonDays:  horizonDays,
		Probability:  probability,
		Bucket:       p.thresholds.Bucket(probability),
		ModelVersion: artifact.Metadata.Version,
	}, nil
}

// PredictSnapshot scores a stored snapshot for one horizon.
func (p *Predictor) PredictSnapshot(horizonDays int, snap domain.Snapshot) (domain.HorizonPrediction, error) {
	return p.PredictVector(horizonDays, p.builder.FromSnapshot(snap))
}

// Predict builds the dual-horizon result for a trader from raw metrics and a
// live market context.
func (p *Predictor) Predict(metrics domain.TraderMetrics, market domain.MarketContext) (domain.Prediction, error) {
	vector := p.builder.FromInputs(metrics, market)
	return p.assemble(metrics.Address, p.now().UTC(), []int{7, 30}, vector)
}

// PredictStored builds the dual-horizon result for a stored snapshot.
func (p *Predictor) PredictStored(horizons []int, snap domain.Snapshot) (domain.Prediction, error) {
	vector := p.builder.FromSnapshot(snap)
	return p.assemble(snap.TraderAddress, snap.Timestamp, horizons, vector)
}

// assemble scores the vector per horizon. A horizon without a trained model
// degrades to an explanatory message instead of failing the whole call; any
// other model error is a real fault and propagates.
func (p *Predictor) assemble(address string, at time.Time, horizons []int, vector []float64) (domain.Prediction, error) {
	out := domain.Prediction{TraderAddress: address, Timestamp: at}

	for _, horizonDays := range horizons {
		hp, err := p.PredictVector(horizonDays, vector)
		if errors.Is(err, ErrModelNotTrained) {
			msg := "model not trained yet"
			if horizonDays == 30 {
				out.Unavailable30d = msg
			} else {
				out.Unavailable7d = msg
			}
			continue
		}
		if err != nil {
			return domain.Prediction{}, err
		}

		probability := hp.Probability
		if horizonDays == 30 {
			out.Probability30d = &probability
		} else {
			out.Probability7d = &probability
			out.ConfidenceBucket = hp.Bucket
		}
	}

	p.logger.Debug("prediction served",
		zap.String("trader", address),
		zap.Bool("has_7d", out.Probability7d != nil),
		zap.Bool("has_30d", out.Probability30d != nil))

	return out, nil
}

// ModelInfo exposes the serving artifact's metadata for a horizon.
func (p *Predictor) ModelInfo(horizonDays int) (domain.ModelMetadata, error) {
	artifact, err := p.artifacts.LoadLatest(horizonDays)
	if errors.Is(err, models.ErrNoArtifact) {
		return domain.ModelMetadata{}, errors.Wrapf(ErrModelNotTrained, "horizon %dd", horizonDays)
	}
	if err != nil {
		return domain.ModelMetadata{}, err
	}
	return artifact.Metadata, nil
}
