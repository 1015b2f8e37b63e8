package main // Entry point package

import (
	"context" // cancellation for background loops
	"log"     // Logging library
	"time"    // timestamps for published events

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/theater-production-schedule/internal/config"     // environment config loader
	"github.com/iliyamo/theater-production-schedule/internal/database"   // MySQL pool setup
	"github.com/iliyamo/theater-production-schedule/internal/handler"    // HTTP handlers
	"github.com/iliyamo/theater-production-schedule/internal/middleware" // cache and rate-limit middleware
	"github.com/iliyamo/theater-production-schedule/internal/queue"      // broker payloads and consumer
	"github.com/iliyamo/theater-production-schedule/internal/repository" // data access layer
	"github.com/iliyamo/theater-production-schedule/internal/router"     // route registration
	"github.com/iliyamo/theater-production-schedule/internal/scheduler"  // periodic repair loop
	queue_publisher "github.com/iliyamo/theater-production-schedule/internal/service"
	"github.com/iliyamo/theater-production-schedule/internal/theater" // order-index core
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	posts := repository.NewPostRepo(db)
	options := repository.NewOptionRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	// The updater is the single write path for order indexes. Persisted
	// changes are announced on the broker; publish failures are logged by
	// the publisher and otherwise ignored.
	updater := &theater.Updater{
		Store: posts,
		Now:   time.Now,
		OnChange: func(ch theater.OrderChange) {
			ev := queue.OrderIndexUpdatedEvent{
				ProductionID: ch.ProductionID,
				OrderIndex:   ch.OrderIndex,
				HasIndex:     ch.HasIndex,
				Source:       "mutation",
				ChangedAt:    time.Now().UTC().Format(time.RFC3339),
			}
			go func() {
				_ = queue_publisher.PublishOrderIndexUpdated(context.Background(), ev)
			}()
		},
	}

	repair := &theater.Repair{
		Store:   posts,
		Options: options,
		Updater: updater,
		Now:     time.Now,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scheduler.StartRepairLoop(ctx, repair, cfg.RepairInterval)
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order-consumer: %v", err)
		}
	}()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware fails open

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(posts, time.Now),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterAdmin(e, handler.NewAdminHandler(posts, updater), cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
