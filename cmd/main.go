package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"neowatch/internal/clients"
	"neowatch/internal/config"
	"neowatch/internal/export"
	"neowatch/internal/handlers"
	"neowatch/internal/middleware"
	"neowatch/internal/repository"
	"neowatch/internal/service"
	"neowatch/internal/worker"
	"neowatch/pkg/redis"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("=== neowatch starting ===")

	cfg := config.Load()

	redisClient, err := redis.Connect(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	cacheRepo := repository.NewCacheRepository(redisClient)

	var sbdbClient clients.SBDBClient
	if cfg.SBDB.CADURL != "" {
		sbdbClient = clients.NewSBDBClient(cfg.SBDB.CADURL)
		log.Printf("Close approaches sourced from SBDB API: %s", cfg.SBDB.CADURL)
	}

	neoService := service.NewNEOService(cacheRepo, sbdbClient, service.DataConfig{
		NEOPath:  cfg.Data.NEOPath,
		CADPath:  cfg.Data.CADPath,
		QueryTTL: cfg.Cache.QueryTTL,
	})

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := neoService.Reload(loadCtx); err != nil {
		cancelLoad()
		log.Fatal("Failed to load datasets:", err)
	}
	cancelLoad()

	exporter := export.NewExporter(cfg.Export.OutputDir)
	neoHandler := handlers.NewNEOHandler(neoService, exporter)

	scheduler := worker.NewScheduler()
	if cfg.Workers.RefreshEnabled {
		scheduler.AddWorker(worker.NewRefreshWorker(neoService, cfg.Workers.RefreshInterval))
		log.Printf("Refresh Worker enabled (interval: %v)", cfg.Workers.RefreshInterval)
	}
	go scheduler.Start()
	defer scheduler.Stop()

	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.App.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if !cfg.App.Debug {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		r.Use(middleware.RateLimitMiddleware(limiter))
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d",
			cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	api := r.Group("/api/v1")

	api.GET("/neos/:designation", neoHandler.GetNEO)
	api.GET("/neos", neoHandler.FindNEO)
	api.GET("/approaches", neoHandler.QueryApproaches)
	api.GET("/approaches/export", neoHandler.ExportApproaches)

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": gin.H{
				"redis":    "connected",
				"database": "loaded",
			},
		})
	})

	api.GET("/system/stats", func(c *gin.Context) {
		redisStats, _ := redis.GetStats(redisClient)

		c.JSON(http.StatusOK, gin.H{
			"database": neoService.Stats(),
			"redis":    redisStats,
			"workers": gin.H{
				"refresh_enabled": cfg.Workers.RefreshEnabled,
			},
		})
	})

	if cfg.App.Debug {
		api.POST("/refresh", func(c *gin.Context) {
			ctx := c.Request.Context()
			if err := neoService.Reload(ctx); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "datasets reloaded"})
		})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.App.Port)
		log.Printf("API available at http://localhost:%s/api/v1", cfg.App.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited properly")
}
