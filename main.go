package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"PropertySearchSys/cache"
	"PropertySearchSys/config"
	"PropertySearchSys/engagement"
	"PropertySearchSys/events"
	"PropertySearchSys/handlers"
	"PropertySearchSys/routes"
	"PropertySearchSys/search"
	"PropertySearchSys/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, db, err := config.ConnectMongo(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	mongoStore := store.NewMongo(db, cfg)
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	resultCache := cache.New(cfg.RedisAddr, cfg.RedisPassword)
	defer resultCache.Close()

	searchService := search.NewService(mongoStore, resultCache, cfg)

	// The engagement queue is optional: without an AMQP URL the counters are
	// applied directly against the store.
	var publisher engagement.Publisher
	var queue *events.Queue
	if cfg.AMQPURL != "" {
		queue, err = events.Dial(cfg.AMQPURL, cfg.EngagementQueue)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer queue.Close()
		publisher = queue
	}
	engagementService := engagement.NewService(mongoStore, publisher)

	if queue != nil {
		go func() {
			if err := queue.Consume(context.Background(), engagementService.Apply); err != nil {
				log.Printf("Engagement consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	routes.RegisterRoutes(e, cfg.JWTSecret,
		handlers.NewSearchController(searchService),
		handlers.NewPropertyController(searchService, engagementService),
		handlers.NewEngagementController(engagementService),
	)

	log.Printf("Server starting on port %s", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
