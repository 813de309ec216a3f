// Package pipeline orchestrates the daily batch: collect top traders and
// market context, persist the snapshot batch, resolve matured labels, and
// retrain any horizon that gained enough fresh labels.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/services/trainer"
)

// TraderSource lists the traders to snapshot this pass.
type TraderSource interface {
	Name() string
	TopTraders(ctx context.Context) ([]domain.TraderMetrics, error)
}

// MarketCollector assembles the market context for the pass.
type MarketCollector interface {
	Collect(ctx context.Context) domain.MarketContext
}

// SnapshotAppender persists one collection batch.
type SnapshotAppender interface {
	Append(records []domain.TraderMetrics, market domain.MarketContext, at time.Time) (int, error)
}

// LabelResolver sweeps matured labels for one horizon.
type LabelResolver interface {
	Resolve(horizonDays int) (int, error)
}

// ModelTrainer retrains one horizon.
type ModelTrainer interface {
	Train(horizonDays int) (domain.TrainingReport, error)
}

// Config tunes the pipeline run.
type Config struct {
	Horizons         []int
	RetrainThreshold int
	Schedule         string
}

// Pipeline wires the batch stages together.
type Pipeline struct {
	cfg       Config
	traders   TraderSource
	market    MarketCollector
	snapshots SnapshotAppender
	resolver  LabelResolver
	trainer   ModelTrainer
	logger    *zap.Logger
	now       func() time.Time
}

func New(cfg Config, traders TraderSource, market MarketCollector, snapshots SnapshotAppender,
	resolver LabelResolver, modelTrainer ModelTrainer, logger *zap.Logger) *Pipeline {
	if len(cfg.Horizons) == 0 {
		cfg.Horizons = []int{7, 30}
	}
	if cfg.RetrainThreshold <= 0 {
		cfg.RetrainThreshold = 10
	}
	return &Pipeline{
		cfg:       cfg,
		traders:   traders,
		market:    market,
		snapshots: snapshots,
		resolver:  resolver,
		trainer:   modelTrainer,
		logger:    logger,
		now:       time.Now,
	}
}

// RunOnce executes one full batch. A trader source failure aborts the pass
// (there is nothing to store); a degraded market context does not. Training
// refusals on small data are expected early in the system's life and are
// logged, not returned.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	batchID := uuid.NewString()
	startedAt := p.now().UTC()
	logger := p.logger.With(zap.String("batch_id", batchID))

	traders, err := p.traders.TopTraders(ctx)
	if err != nil {
		return errors.Wrapf(err, "fetch traders from %s", p.traders.Name())
	}
	logger.Info("traders fetched", zap.String("source", p.traders.Name()), zap.Int("count", len(traders)))

	market := p.market.Collect(ctx)

	stored, err := p.snapshots.Append(traders, market, startedAt)
	if err != nil {
		return errors.Wrap(err, "persist snapshot batch")
	}
	logger.Info("snapshot batch stored", zap.Int("stored", stored), zap.Int("skipped", len(traders)-stored))

	for _, horizonDays := range p.cfg.Horizons {
		resolved, err := p.resolver.Resolve(horizonDays)
		if err != nil {
			return errors.Wrapf(err, "resolve labels for %dd", horizonDays)
		}
		if resolved < p.cfg.RetrainThreshold {
			logger.Info("retrain skipped",
				zap.Int("horizon_days", horizonDays),
				zap.Int("new_labels", resolved),
				zap.Int("threshold", p.cfg.RetrainThreshold))
			continue
		}

		report, err := p.trainer.Train(horizonDays)
		if errors.Is(err, trainer.ErrInsufficientData) {
			logger.Warn("retrain refused, labeled history too small",
				zap.Int("horizon_days", horizonDays), zap.Error(err))
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "train %dd model", horizonDays)
		}
		logger.Info("model retrained",
			zap.Int("horizon_days", horizonDays),
			zap.String("version", report.Version),
			zap.Float64("accuracy", report.Accuracy),
			zap.Float64("roc_auc", report.ROCAUC))
	}

	logger.Info("pipeline run finished", zap.Duration("took", p.now().UTC().Sub(startedAt)))
	return nil
}

// Run schedules RunOnce with cron and blocks until the context is canceled.
func (p *Pipeline) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(p.cfg.Schedule, func() {
		if err := p.RunOnce(ctx); err != nil {
			p.logger.Error("scheduled pipeline run failed", zap.Error(err))
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid schedule %q", p.cfg.Schedule)
	}

	p.logger.Info("pipeline scheduled", zap.String("schedule", p.cfg.Schedule))
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}
