package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicreg/citizen-admin/handlers"
	"github.com/civicreg/citizen-admin/internal/assets"
	"github.com/civicreg/citizen-admin/internal/audit"
	"github.com/civicreg/citizen-admin/internal/config"
	"github.com/civicreg/citizen-admin/internal/database"
	"github.com/civicreg/citizen-admin/internal/registry/handler"
	"github.com/civicreg/citizen-admin/internal/registry/repository"
	"github.com/civicreg/citizen-admin/internal/registry/service"
	"github.com/civicreg/citizen-admin/pkg/logger"
	"github.com/civicreg/citizen-admin/pkg/metrics"
	"github.com/civicreg/citizen-admin/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple; production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Admin-Email")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery + admin identity
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.AdminIdentity(cfg.Admin.DefaultEmail))

	// Connect to Redis early so the rate-limiter can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-admin identity, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// shared runtime vars used by readiness
	var registrySvc *service.Service
	var auditSvc *audit.Service

	// readiness endpoint: 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["registry"] = registrySvc != nil
		if registrySvc == nil {
			ready = false
		}
		deps["audit"] = auditSvc != nil

		// Redis readiness only matters when it backs the rate limiter
		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Connect to MongoDB and initialize the registry and audit services.
	// Retry with backoff to tolerate startup races.
	ctx := context.Background()
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			repo := repository.NewMongoRepo(
				db.Collection(cfg.Registry.UsersCollection),
				db.Collection(cfg.Registry.CardsCollection),
				db.Collection(cfg.Registry.ResidenceCollection),
				db.Collection(cfg.Registry.MembersCollection),
			)
			auditRepo := audit.NewMongoRepository(db.Collection(cfg.Audit.Collection))
			auditSvc = audit.NewService(auditRepo, cfg.Audit.RetentionDays)
			registrySvc = service.NewService(repo, auditSvc, cfg.Registry.PageSize, cfg.Registry.MaxSearchResults)
		}
	}

	api := r.Group("/api/v1")
	if registrySvc != nil {
		handler.NewHandler(registrySvc).Register(api)
		audit.RegisterRoutes(api, auditSvc)
	} else {
		logger.Warnf("registry handlers not registered because MongoDB is unavailable")
	}

	// Optional object storage for user avatar/badge assets
	if cfg.MinIO.Endpoint != "" && registrySvc != nil {
		store, err := assets.NewStorage(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.UseSSL, cfg.MinIO.Bucket)
		if err != nil {
			logger.Warnf("asset storage unavailable: %v", err)
		} else {
			assets.NewHandler(store, registrySvc).Register(api)
			logger.Infof("asset storage enabled: %s/%s", cfg.MinIO.Endpoint, cfg.MinIO.Bucket)
		}
	}

	// Swagger UI + OpenAPI JSON for API documentation
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting citizen admin service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
