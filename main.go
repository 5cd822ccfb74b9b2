package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/vindex/config"
	"github.com/nijaru/vindex/handlers/api"
	"github.com/nijaru/vindex/indexer"
	"github.com/nijaru/vindex/logger"
	"github.com/nijaru/vindex/models"
	"github.com/nijaru/vindex/services/video"
	"github.com/nijaru/vindex/validation"
)

func main() {
	submitURL := flag.String("submit", "", "submit this video URL and exit instead of serving")
	name := flag.String("name", "", "display name for -submit")
	wait := flag.Bool("wait", false, "with -submit, poll until indexing finishes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, closer, err := logger.New(logger.Config{
		Dir:   cfg.LogDir,
		Level: cfg.LogLevel,
		JSON:  cfg.LogJSON,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer closer.Close()

	client := indexer.NewClient(indexer.ClientConfig{
		Credentials: indexer.Credentials{
			SubscriptionKey: cfg.Indexer.SubscriptionKey,
			AccountID:       cfg.Indexer.AccountID,
			Location:        cfg.Indexer.Location,
		},
		BaseURL:           cfg.Indexer.BaseURL,
		HTTPClient:        &http.Client{Timeout: cfg.Indexer.HTTPTimeout},
		StreamingPreset:   cfg.Indexer.StreamingPreset,
		DefaultRetryAfter: cfg.Indexer.DefaultRetryAfter,
		RequestsPerSecond: cfg.Indexer.RequestsPerSecond,
		Logger:            appLogger,
	})

	videoService := video.NewService(
		client,
		validation.NewValidator(),
		video.Config{PollInterval: cfg.Indexer.PollInterval},
		appLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *submitURL != "" {
		if err := runOnce(ctx, videoService, appLogger, *submitURL, *name, *wait); err != nil {
			appLogger.WithError(err).Error("Submission failed")
			closer.Close()
			os.Exit(1)
		}
		return
	}

	server := api.NewServer(cfg,
		api.WithLogger(appLogger),
		api.WithServices(videoService),
	)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.WithError(err).Error("Server shutdown error")
		}
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		appLogger.WithError(err).Fatal("Server error")
	}
}

// runOnce submits a single video and optionally follows it to completion,
// printing each progress reading.
func runOnce(ctx context.Context, svc video.Service, appLogger *logrus.Logger, url, name string, wait bool) error {
	sub, err := svc.Submit(ctx, models.SubmitRequest{URL: url, Name: name})
	if err != nil {
		return err
	}
	fmt.Printf("job %s submitted as %q\n", sub.JobID, sub.Name)

	if !wait {
		return nil
	}

	p, err := svc.Wait(ctx, sub.JobID, indexer.AccessToken(sub.AccessToken), func(p *indexer.Progress) {
		fmt.Printf("job %s: %s\n", p.JobID, p.Progress)
	})
	if err != nil {
		return err
	}
	if p.Failed() {
		appLogger.WithField("job_id", p.JobID).Warn("Indexing failed")
		return errors.Errorf("job %s failed", p.JobID)
	}
	return nil
}
