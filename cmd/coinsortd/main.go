// Command coinsortd runs the transaction classification daemon. It listens
// for transaction-stored webhooks, classifies withdrawals through an LLM, and
// writes the chosen category back to the finance service.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"coinsort/internal/config"
	"coinsort/internal/daemon"
	"coinsort/internal/jobs"
	"coinsort/internal/logging"
	"coinsort/internal/notifications"
	"coinsort/internal/queue"
	"coinsort/internal/services/firefly"
	"coinsort/internal/services/llm"
	"coinsort/internal/workflow"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateDaemon(); err != nil {
		log.Fatalf("validate config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	hub := jobs.NewHub(logger)
	registry := jobs.NewRegistry(hub, logger)

	finance := firefly.NewClient(firefly.Config{
		BaseURL:        cfg.Firefly.BaseURL,
		AccessToken:    cfg.Firefly.AccessToken,
		TimeoutSeconds: cfg.Firefly.RequestTimeout,
	})
	classifier := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	notifier := notifications.NewService(cfg)
	processor := workflow.NewProcessor(registry, finance, classifier, notifier, logger)

	q := queue.New(logger,
		queue.WithTaskTimeout(cfg.TaskTimeout()),
		queue.WithCapacity(cfg.Queue.Capacity),
		queue.WithListener(newNotifyingListener(ctx, registry, notifier)),
	)

	d, err := daemon.New(cfg, logger, registry, hub, q, processor)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("coinsortd shutting down")
}

// newNotifyingListener forwards failed and abandoned tasks to the
// notification service. The listener runs on the queue worker goroutine, so
// delivery happens on a detached goroutine to keep it non-blocking.
func newNotifyingListener(ctx context.Context, registry *jobs.Registry, notifier notifications.Service) queue.Listener {
	return func(evt queue.Event) {
		label := evt.JobID.String()
		if job, ok := registry.Get(evt.JobID); ok {
			label = job.Data.DestinationName
		}
		switch evt.Kind {
		case queue.EventError:
			err := evt.Err
			go func() { _ = notifier.NotifyTaskFailed(ctx, err, label) }()
		case queue.EventTimeout:
			go func() { _ = notifier.NotifyTaskTimeout(ctx, label) }()
		}
	}
}
