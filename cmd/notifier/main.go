package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/notify"
	"github.com/your-org/faceguard/internal/observability"
	"github.com/your-org/faceguard/internal/queue"
	"github.com/your-org/faceguard/internal/workflow"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting faceguard notifier")

	backend := notify.Select(cfg.Notifications)

	engine, err := workflow.Load(cfg.Workflow.RulesPath)
	if err != nil {
		slog.Error("load workflow rules", "error", err)
		os.Exit(1)
	}

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeRecognitions(ctx, "notifier", func(ctx context.Context, msg jetstream.Msg) error {
		var rec models.RecognitionMessage
		if err := json.Unmarshal(msg.Data(), &rec); err != nil {
			return fmt.Errorf("unmarshal recognition: %w", err)
		}

		// One notification per image, even when several faces resolve.
		// Workflow rules still see every face.
		if cfg.Notifications.Enabled {
			if n, ok := notify.ForMessage(&rec); ok {
				if err := backend.Send(ctx, n); err != nil {
					slog.Warn("send notification", "backend", backend.Name(), "error", err)
				}
			}
		}
		for _, face := range rec.Faces {
			engine.Evaluate(ctx, face)
		}
		return nil
	})
	if err != nil {
		slog.Error("start recognition consumer", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("notifier stopped")
}
