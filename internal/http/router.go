// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/farmlink/go-market-backend/internal/config"
	"github.com/farmlink/go-market-backend/internal/domain"
	"github.com/farmlink/go-market-backend/internal/http/handlers"
	"github.com/farmlink/go-market-backend/internal/http/middleware"
	"github.com/farmlink/go-market-backend/internal/repo"
	"github.com/farmlink/go-market-backend/internal/services"
)

// cropRepoShim adapts the repository free functions to the services.CropRepo
// interface expected by the CropService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type cropRepoShim struct{}

// ListCrops proxies repo.ListCrops.
func (cropRepoShim) ListCrops(ctx context.Context, db *mongo.Database, search string) ([]domain.Crop, error) {
	return repo.ListCrops(ctx, db, search)
}

// LatestCrops proxies repo.LatestCrops.
func (cropRepoShim) LatestCrops(ctx context.Context, db *mongo.Database, limit int) ([]domain.Crop, error) {
	return repo.LatestCrops(ctx, db, limit)
}

// GetCrop proxies repo.GetCrop.
func (cropRepoShim) GetCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Crop, error) {
	return repo.GetCrop(ctx, db, id)
}

// CropsByOwner proxies repo.CropsByOwner.
func (cropRepoShim) CropsByOwner(ctx context.Context, db *mongo.Database, email string) ([]domain.Crop, error) {
	return repo.CropsByOwner(ctx, db, email)
}

// CreateCrop proxies repo.CreateCrop.
func (cropRepoShim) CreateCrop(ctx context.Context, db *mongo.Database, doc bson.M) (primitive.ObjectID, error) {
	return repo.CreateCrop(ctx, db, doc)
}

// UpdateCrop proxies repo.UpdateCrop.
func (cropRepoShim) UpdateCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID, doc bson.M) error {
	return repo.UpdateCrop(ctx, db, id, doc)
}

// DeleteCrop proxies repo.DeleteCrop.
func (cropRepoShim) DeleteCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	return repo.DeleteCrop(ctx, db, id)
}

// interestRepoShim adapts the repository free functions to the
// services.InterestRepo interface expected by the InterestService.
type interestRepoShim struct{}

// GetCrop proxies repo.GetCrop.
func (interestRepoShim) GetCrop(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Crop, error) {
	return repo.GetCrop(ctx, db, id)
}

// PushInterest proxies repo.PushInterest.
func (interestRepoShim) PushInterest(ctx context.Context, db *mongo.Database, cropID primitive.ObjectID, userEmail string, doc bson.M) error {
	return repo.PushInterest(ctx, db, cropID, userEmail, doc)
}

// SetInterestStatus proxies repo.SetInterestStatus.
func (interestRepoShim) SetInterestStatus(ctx context.Context, db *mongo.Database, cropID, interestID primitive.ObjectID, status string, decrement float64) error {
	return repo.SetInterestStatus(ctx, db, cropID, interestID, status, decrement)
}

// CropsWithInterestBy proxies repo.CropsWithInterestBy.
func (interestRepoShim) CropsWithInterestBy(ctx context.Context, db *mongo.Database, email string) ([]domain.Crop, error) {
	return repo.CropsWithInterestBy(ctx, db, email)
}

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the UserService.
type userRepoShim struct{}

// UpsertUser proxies repo.UpsertUser.
func (userRepoShim) UpsertUser(ctx context.Context, db *mongo.Database, email string, doc bson.M) error {
	return repo.UpsertUser(ctx, db, email, doc)
}

// GetUserByEmail proxies repo.GetUserByEmail.
func (userRepoShim) GetUserByEmail(ctx context.Context, db *mongo.Database, email string) (bson.M, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the public API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing (emails are path
//     parameters in this API)
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. Rate limiter (per client IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *mongo.Database, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses (crop listings are unpaginated and can be large)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health: no store access beyond the connection established at startup
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	// Swagger UI (optional)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	cropSvc := services.NewCropService(db, cropRepoShim{})
	cropSvc.LatestLimit = cfg.LatestLimit
	interestSvc := services.NewInterestService(db, interestRepoShim{})
	userSvc := services.NewUserService(db, userRepoShim{})
	h := handlers.New(cropSvc, interestSvc, userSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Crops (the static /crops/latest route coexists with /crops/:id)
		api.GET("/crops", h.ListCrops)
		api.GET("/crops/latest", h.LatestCrops)
		api.GET("/crops/:id", h.GetCrop)
		api.GET("/my-crops/:email", h.MyCrops)
		api.POST("/crops", h.CreateCrop)
		api.PUT("/crops/:id", h.UpdateCrop)
		api.DELETE("/crops/:id", h.DeleteCrop)

		// Interests
		api.POST("/interests", h.SubmitInterest)
		api.GET("/my-interests/:email", h.MyInterests)
		api.PUT("/interests/status", h.UpdateInterestStatus)

		// Users
		api.POST("/users", h.SaveUser)
		api.GET("/users/:email", h.GetUser)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
