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

	"github.com/tcmng/tcmng-server/handlers"
	"github.com/tcmng/tcmng-server/internal/cache"
	"github.com/tcmng/tcmng-server/internal/config"
	"github.com/tcmng/tcmng-server/internal/database"
	"github.com/tcmng/tcmng-server/internal/images"
	"github.com/tcmng/tcmng-server/pkg/logger"
	"github.com/tcmng/tcmng-server/pkg/metrics"
	"github.com/tcmng/tcmng-server/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging first (controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v uploads=%s",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Uploads.Backend)

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())
	r.Use(metrics.Middleware())

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and cache can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			if err := cache.SetClient(redisClient); err != nil {
				logger.Fatalf("cache client wiring: %v", err)
			}
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Retry/backoff when connecting to MongoDB to tolerate startup races
	const maxAttempts = 5
	backoff := time.Second
	var client *mongo.Client
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if err != nil {
		logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	db := client.Database(cfg.MongoDB.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Fatalf("index bootstrap: %v", err)
	}

	// image storage backend: local disk by default, MinIO when configured
	var store images.Store
	switch cfg.Uploads.Backend {
	case "minio":
		store, err = images.NewMinIOStore(&images.MinIOConfig{
			Endpoint:  cfg.Uploads.MinIOEndpoint,
			AccessKey: cfg.Uploads.MinIOAccessKey,
			SecretKey: cfg.Uploads.MinIOSecretKey,
			Bucket:    cfg.Uploads.MinIOBucket,
			UseSSL:    cfg.Uploads.MinIOUseSSL,
		})
		if err != nil {
			logger.Fatalf("minio store: %v", err)
		}
	default:
		store = images.NewDiskStore(cfg.Uploads.Dir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies answer
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		deps["mongo"] = client.Ping(pingCtx, nil) == nil
		if !deps["mongo"] {
			ready = false
		}
		if redisClient != nil {
			deps["redis"] = redisClient.Ping(pingCtx).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			// not configured -> consider OK
			deps["redis"] = true
		}

		status := http.StatusOK
		label := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			label = "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.Mount(r, db, store, cfg)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting tcmng-server on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
