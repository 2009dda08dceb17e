package main // Entry point package

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/cinetick/booking/internal/config"
	"github.com/cinetick/booking/internal/database"
	"github.com/cinetick/booking/internal/handler"
	"github.com/cinetick/booking/internal/inventory"
	"github.com/cinetick/booking/internal/logger"
	"github.com/cinetick/booking/internal/queue"
	"github.com/cinetick/booking/internal/repository"
	"github.com/cinetick/booking/internal/router"
	"github.com/cinetick/booking/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer zl.Sync()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	// Redis is optional: without it, locking falls back to an in-process
	// locker and the taken-seat cache is disabled.
	rdb := config.NewRedisClient()
	var locker inventory.ShowtimeLocker
	if rdb != nil {
		locker = inventory.NewRedisLocker(rdb)
	} else {
		zl.Warn("redis unavailable, using in-process showtime locks")
		locker = inventory.NewLocalLocker()
	}
	cache := inventory.NewSeatCache(rdb, cfg.SeatCacheTTL)

	showtimes := repository.NewShowtimeRepo(db)
	bookings := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)

	events := queue.NewPublisher(cfg.RabbitURL, zl)

	svc := service.New(showtimes, bookings, users, locker, cache, events, zl)

	// Consume booking events in the background; each message triggers a
	// reconciliation of the affected showtime.
	go queue.StartBookingConsumer(cfg.RabbitURL, svc, zl)

	e := echo.New()
	e.Use(middleware.Recover())
	router.RegisterRoutes(e, handler.NewBookingHandler(svc), handler.NewShowtimeHandler(svc))

	addr := ":" + cfg.Port
	zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))

	if err := e.Start(addr); err != nil { // Start HTTP server
		zl.Fatal("server stopped", zap.Error(err))
	}
}
