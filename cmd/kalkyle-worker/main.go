package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"kalkyle/internal/amqp"
	"kalkyle/internal/cli"
	applog "kalkyle/internal/log"
	"kalkyle/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("info", applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the scenario worker")
		os.Exit(1)
	}

	logger.Info("Starting kalkyle-worker", "queue", cfg.AMQPQueue, "report_interval", cfg.WorkerReportInterval.String())

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	w := worker.NewScenarioWorker(logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeScenarios(gctx, w.HandleScenarioMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return w.RunReports(gctx, cfg.WorkerReportInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
