// Command tracker records top crypto trader snapshots, resolves delayed
// profitability labels, trains per-horizon models and serves predictions.
//
// Usage:
//
//	tracker [flags] [command]
//
// Commands:
//
//	run      start the scheduled pipeline and the dashboard (default)
//	collect  execute one collection pass and exit
//	resolve  resolve matured labels and exit
//	train    retrain models for all configured horizons and exit
//	predict  print the prediction for a trader address and exit
//	serve    start the dashboard only
//	setup    launch the configuration wizard
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soulSw0rd/business-reporting/config"
	"github.com/soulSw0rd/business-reporting/internal/app"
	"github.com/soulSw0rd/business-reporting/internal/services/trainer"
	"github.com/soulSw0rd/business-reporting/internal/setup"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	command := flag.Arg(0)
	if command == "" {
		command = "run"
	}

	if command == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, command, application, logger); err != nil {
		logger.Fatal("command failed", zap.String("command", command), zap.Error(err))
	}
}

func dispatch(ctx context.Context, command string, application *app.App, logger *zap.Logger) error {
	switch command {
	case "run":
		errCh := make(chan error, 2)
		go func() { errCh <- application.Pipeline.Run(ctx) }()
		go func() { errCh <- application.Server.Start(ctx) }()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil

	case "collect":
		return application.Pipeline.RunOnce(ctx)

	case "resolve":
		for _, horizonDays := range application.Config.Horizons {
			resolved, err := application.Resolver.Resolve(horizonDays)
			if err != nil {
				return err
			}
			fmt.Printf("horizon %dd: %d labels resolved\n", horizonDays, resolved)
		}
		return nil

	case "train":
		for _, horizonDays := range application.Config.Horizons {
			report, err := application.Trainer.Train(horizonDays)
			if errors.Is(err, trainer.ErrInsufficientData) {
				fmt.Printf("horizon %dd: not enough labeled data yet\n", horizonDays)
				continue
			}
			if err != nil {
				return err
			}
			fmt.Printf("horizon %dd: version %s accuracy %.3f auc %.3f (%d samples)\n",
				report.HorizonDays, report.Version, report.Accuracy, report.ROCAUC, report.SamplesCount)
		}
		return nil

	case "predict":
		address := flag.Arg(1)
		if address == "" {
			return errors.New("usage: tracker predict <trader-address>")
		}
		return printPrediction(application, address)

	case "serve":
		return application.Server.Start(ctx)

	default:
		return errors.Errorf("unknown command %q", command)
	}
}

func printPrediction(application *app.App, address string) error {
	snap, ok := application.Snapshots.LatestByTrader(address)
	if !ok {
		return errors.Errorf("trader %s is not tracked", address)
	}

	out, err := application.Predictor.PredictStored(application.Config.Horizons, snap)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}
