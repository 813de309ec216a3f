// Package app wires the tracker's services together from configuration.
package app

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soulSw0rd/business-reporting/config"
	"github.com/soulSw0rd/business-reporting/internal/clients"
	"github.com/soulSw0rd/business-reporting/internal/pipeline"
	"github.com/soulSw0rd/business-reporting/internal/services/labeler"
	"github.com/soulSw0rd/business-reporting/internal/services/market/indicators"
	"github.com/soulSw0rd/business-reporting/internal/services/market/sentiment"
	"github.com/soulSw0rd/business-reporting/internal/services/market/sources"
	"github.com/soulSw0rd/business-reporting/internal/services/predictor"
	"github.com/soulSw0rd/business-reporting/internal/services/trainer"
	"github.com/soulSw0rd/business-reporting/internal/storage/models"
	"github.com/soulSw0rd/business-reporting/internal/storage/snapshots"
	"github.com/soulSw0rd/business-reporting/internal/web"
)

// App holds the wired services behind every tracker command.
type App struct {
	Config     config.Config
	Snapshots  *snapshots.WALStore
	Artifacts  *models.Store
	Aggregator *sentiment.Aggregator
	Resolver   *labeler.Resolver
	Trainer    *trainer.Trainer
	Predictor  *predictor.Predictor
	Pipeline   *pipeline.Pipeline
	Server     *web.Server

	logger *zap.Logger
}

// New builds the full service graph. The Hyperliquid price fallback is only
// wired when a private key is configured; everything else runs on public
// endpoints.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := snapshots.NewWALStore(cfg.DataDir)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot store")
	}

	artifacts, err := models.NewStore(cfg.ModelDir, cfg.KeepModelVersions)
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "open model artifact store")
	}

	prices := []sentiment.PriceSource{sources.NewCoinGecko()}
	if cfg.HyperliquidPrivateKey != "" {
		info, err := clients.NewHyperliquidInfo(cfg.HyperliquidPrivateKey)
		if err != nil {
			_ = store.Close()
			return nil, errors.Wrap(err, "init hyperliquid client")
		}
		prices = append(prices, sources.NewHyperliquidPrice(info))
	}

	funding := []sentiment.FundingSource{
		sources.NewBinanceFunding(),
		sources.NewBybitFunding(clients.NewBybitClient()),
	}

	aggregator := sentiment.NewAggregator(
		prices,
		sources.NewFearAndGreed(),
		funding,
		indicators.NewBinanceTrend(),
		cfg.FundingSymbols,
		logger,
	)

	resolver := labeler.NewResolver(store, logger)
	modelTrainer := trainer.New(trainer.Config{
		MinSamples:   cfg.Training.MinSamples,
		TestFraction: cfg.Training.TestFraction,
		Seed:         cfg.Training.Seed,
		Trees:        cfg.Training.Trees,
		MaxDepth:     cfg.Training.MaxDepth,
	}, store, artifacts, logger)
	pred := predictor.New(artifacts, cfg.Thresholds, logger)

	pipe := pipeline.New(pipeline.Config{
		Horizons:         cfg.Horizons,
		RetrainThreshold: cfg.RetrainThreshold,
		Schedule:         cfg.CollectSchedule,
	}, sources.NewHyperliquidLeaderboard(cfg.TopTraders), aggregator, store, resolver, modelTrainer, logger)

	server := web.NewServer(cfg.ListenAddr, cfg.Domain, cfg.Horizons, store, pred, aggregator, logger)

	return &App{
		Config:     cfg,
		Snapshots:  store,
		Artifacts:  artifacts,
		Aggregator: aggregator,
		Resolver:   resolver,
		Trainer:    modelTrainer,
		Predictor:  pred,
		Pipeline:   pipe,
		Server:     server,
		logger:     logger,
	}, nil
}

// Close releases the storage resources.
func (a *App) Close() error {
	return a.Snapshots.Close()
}
