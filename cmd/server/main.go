package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/config"
	"github.com/canteenhq/order-desk/internal/database"
	"github.com/canteenhq/order-desk/internal/handler"
	"github.com/canteenhq/order-desk/internal/live"
	"github.com/canteenhq/order-desk/internal/middleware"
	"github.com/canteenhq/order-desk/internal/queue"
	"github.com/canteenhq/order-desk/internal/repository"
	"github.com/canteenhq/order-desk/internal/router"
	"github.com/canteenhq/order-desk/internal/service"
)

func main() {
	// .env is a convenience for local runs; in deployment the
	// variables come from the environment.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis backs the live feed and the rate limiter. Both degrade
	// gracefully when it is down, so a nil client is not fatal.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	sessions := repository.NewSessionRepo(db)
	orders := repository.NewOrderRepo(db)
	menu := repository.NewMenuRepo(db)

	feed := live.NewFeed(rdb)
	issuer := service.NewIssuer(db, orders, sessions)
	kitchen := &service.AMQPKitchen{URL: cfg.AMQPURL}
	workflow := service.NewWorkflow(db, orders, sessions, issuer, kitchen, feed)

	// The kitchen printer consumer runs in-process; it reconnects on
	// its own and never takes the API down with it.
	go func() {
		if err := queue.StartKitchenConsumer(); err != nil {
			log.Printf("kitchen consumer stopped: %v", err)
		}
	}()

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(workflow, orders, sessions, menu, feed)
	staffH := handler.NewStaffHandler(workflow, orders, sessions)
	ownerH := handler.NewOwnerHandler(sessions, orders)
	menuH := handler.NewMenuHandler(menu)

	e := echo.New()
	e.HideBanner = true

	placeLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	menuCache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, placeLimit, menuCache)
	router.RegisterStaff(e, staffH, menuH, cfg.JWTSecret)
	router.RegisterOwner(e, ownerH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
