package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"kalkyle/internal/amqp"
	"kalkyle/internal/backend"
	"kalkyle/internal/calc"
	"kalkyle/internal/chart"
	"kalkyle/internal/cli"
	apphttp "kalkyle/internal/http"
	applog "kalkyle/internal/log"
	"kalkyle/internal/middleware/ratelimit"
	"kalkyle/internal/middleware/security"
	"kalkyle/internal/services"
	"kalkyle/internal/session"
	"kalkyle/internal/view"
)

func main() {
	dumpModel := flag.Bool("dump-model", false, "print the loaded model as YAML and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger("info", applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid model configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend)).LoadModel(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to load model", applog.FieldError, err, applog.FieldModelSource, cfg.ModelSource)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Model source cleanup failed", applog.FieldError, err)
		}
	}()

	if *dumpModel {
		out, err := backend.MarshalYAML(res.Model)
		if err != nil {
			logger.Error("Failed to encode model", applog.FieldError, err)
			os.Exit(1)
		}
		_, _ = os.Stdout.Write(out)
		return
	}

	engine := calc.NewEngine(res.Model)
	storeOpts := []session.StoreOption{session.WithLogger(logger.WithComponent(applog.ComponentSession))}

	// Scenario events are best effort: a broker that is down at start-up
	// leaves the calculator running without them.
	var notifier *services.ScenarioNotifier
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP))
		if err != nil {
			logger.Warn("AMQP unavailable, scenario events disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			notifier = services.NewScenarioNotifier(client, services.DefaultNotifierConfig(), logger.WithComponent(applog.ComponentAMQP))
			storeOpts = append(storeOpts, session.WithListener(notifier.Listener()))
		}
	}
	store := session.NewStore(engine, cfg.SessionMax, cfg.SessionTTL, storeOpts...)

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Error("Invalid trusted proxy", applog.FieldError, err)
			os.Exit(1)
		}
	}

	notes, err := view.NewNotes()
	if err != nil {
		logger.Error("Failed to parse notes", applog.FieldError, err)
		os.Exit(1)
	}
	notes.WithLogger(logger.WithComponent(applog.ComponentTemplate))

	srv := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		Store:           store,
		Notes:           notes,
		Palette:         chart.PaletteFor(cfg.ChartTheme),
		Logger:          logger.WithComponent(applog.ComponentHTTP),
		Detector:        detector,
		RateLimit:       ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute},
		SessionTTL:      cfg.SessionTTL,
		CleanupInterval: cfg.SessionCleanupInterval,
		ModelSource:     res.Source.String(),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if notifier != nil {
		// The loop outlives ctx so Stop can drain what is queued.
		if err := notifier.Start(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Failed to start scenario notifier", applog.FieldError, err)
			os.Exit(1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting kalkyle server",
			"port", cfg.Port,
			applog.FieldModelSource, res.Source.String(),
			"events", notifier != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		err := srv.Shutdown(shutdownCtx)
		if notifier != nil {
			if stopErr := notifier.Stop(shutdownCtx); stopErr != nil {
				logger.Warn("Scenario notifier did not drain", applog.FieldError, stopErr)
			}
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
