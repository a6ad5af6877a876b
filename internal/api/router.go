package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/faceguard/internal/api/handlers"
	"github.com/your-org/faceguard/internal/api/ws"
	"github.com/your-org/faceguard/internal/auth"
	"github.com/your-org/faceguard/internal/queue"
	"github.com/your-org/faceguard/internal/recognize"
	"github.com/your-org/faceguard/internal/storage"
)

type RouterConfig struct {
	AuthToken  string
	DB         *storage.PostgresStore
	Blobs      *storage.ObjectStore
	Producer   *queue.Producer
	Hub        *ws.Hub
	Recognizer *recognize.Service // nil when vision init failed
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.Blobs, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.TokenMiddleware(cfg.AuthToken))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Snapshot upload + recognition
	uploadH := handlers.NewUploadHandler(cfg.Blobs, cfg.Recognizer, cfg.Producer, cfg.Hub)
	v1.POST("/upload", uploadH.Upload)

	// Persons
	personH := handlers.NewPersonHandler(cfg.DB)
	v1.POST("/persons", personH.Create)
	v1.GET("/persons", personH.List)
	v1.GET("/persons/:id", personH.Get)
	v1.PUT("/persons/:id", personH.Rename)
	v1.POST("/persons/:id/merge", personH.Merge)
	v1.DELETE("/persons/:id", personH.Delete)
	v1.GET("/persons/:id/samples", personH.ListSamples)
	v1.DELETE("/persons/:id/samples/:sampleId", personH.DeleteSample)

	// Events
	eventH := handlers.NewEventHandler(cfg.DB, cfg.Blobs)
	v1.GET("/events", eventH.List)
	v1.GET("/events/latest", eventH.Latest)
	v1.GET("/events/:id/snapshot", eventH.Snapshot)
	v1.GET("/events/:id/similar", eventH.Similar)

	// Stats
	v1.GET("/stats", systemH.Stats)

	return r
}
