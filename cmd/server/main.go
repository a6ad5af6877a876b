package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/faceguard/internal/api"
	"github.com/your-org/faceguard/internal/api/ws"
	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/observability"
	"github.com/your-org/faceguard/internal/queue"
	"github.com/your-org/faceguard/internal/recognize"
	"github.com/your-org/faceguard/internal/storage"
	"github.com/your-org/faceguard/internal/vision"
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

	slog.Info("starting faceguard server", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	// Connect to MinIO
	blobs, err := storage.NewObjectStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := blobs.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Vision + recognition. Any ONNX failure disables recognition for the
	// whole process; uploads are still accepted and stored.
	var recognizer *recognize.Service
	if cfg.Vision.Enabled {
		ort.SetSharedLibraryPath(getONNXLibPath())
		if err := ort.InitializeEnvironment(); err != nil {
			slog.Warn("onnx runtime init failed, recognition disabled", "error", err)
		} else {
			pipeline, err := vision.NewPipeline(cfg.Vision, nil)
			if err != nil {
				slog.Warn("vision pipeline init failed, recognition disabled", "error", err)
			} else {
				defer pipeline.Close()
				defer ort.DestroyEnvironment()

				learner, err := recognize.NewLearner(cfg.Learning, cfg.Vision, db, blobs)
				if err != nil {
					slog.Error("learner config", "error", err)
					os.Exit(1)
				}

				matcher := recognize.NewMatcher(cfg.Vision)
				recognizer = recognize.NewService(cfg.Vision, pipeline, pipeline, matcher, learner, db, blobs)
				slog.Info("recognition pipeline ready")
			}
		}
	} else {
		slog.Info("vision disabled by config")
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		AuthToken:  cfg.Server.AuthToken,
		DB:         db,
		Blobs:      blobs,
		Producer:   producer,
		Hub:        hub,
		Recognizer: recognizer,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// getONNXLibPath returns the ONNX Runtime shared library path.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
