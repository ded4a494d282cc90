package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/cafe-ordering/config"
	"github.com/yeremiapane/cafe-ordering/database"
	"github.com/yeremiapane/cafe-ordering/events"
	"github.com/yeremiapane/cafe-ordering/kds"
	"github.com/yeremiapane/cafe-ordering/middlewares"
	"github.com/yeremiapane/cafe-ordering/router"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger(utils.LogConfig{})
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger(utils.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}

	hub := kds.NewHub(utils.InfoLogger)
	publishers := []events.Publisher{hub}
	if cfg.KafkaEnabled() {
		kafkaPub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		defer kafkaPub.Close()
		publishers = append(publishers, kafkaPub)
		utils.InfoLogger.Printf("Publishing order events to kafka topic %s", cfg.KafkaOrderTopic)
	}
	publisher := events.NewMulti(utils.ErrorLogger, publishers...)

	var menuCache services.MenuCache
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			utils.ErrorLogger.Printf("Redis unavailable, menu cache disabled: %v", err)
		} else {
			menuCache = services.NewRedisMenuCache(rdb, cfg.MenuCacheTTL)
			utils.InfoLogger.Printf("Menu cache enabled (ttl=%s)", cfg.MenuCacheTTL)
		}
	}

	orders := services.NewOrderService(db, publisher, utils.InfoLogger)
	menu := services.NewMenuService(db, services.MenuConfig{
		DisplayRating:    cfg.MenuDisplayRating,
		FallbackCategory: cfg.MenuFallbackCategory,
		SpecialLimit:     cfg.SpecialItemsLimit,
		MaxSpecialLimit:  cfg.SpecialItemsMaxLimit,
	}, menuCache, utils.InfoLogger)

	r := router.SetupRouter(router.Options{
		DB:             db,
		Orders:         orders,
		Menu:           menu,
		Hub:            hub,
		QR:             services.DefaultQRGenerator{BaseURL: cfg.PublicBaseURL},
		OwnerSecret:    []byte(cfg.OwnerTokenSecret),
		CORSOrigins:    cfg.CORSOrigins,
		RateLimiter:    middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		CurrencySymbol: cfg.CurrencySymbol,
		TrustedProxies: []string{"127.0.0.1"},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.InfoLogger.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Forced shutdown: %v", err)
	}
}
