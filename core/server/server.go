package server

import (
	"fmt"

	"calsync/core/cache"
	"calsync/core/config"
	"calsync/core/database"
	"calsync/core/logger"
	"calsync/core/queue"
	"calsync/modules/event"
	"calsync/modules/integration"
	syncmodule "calsync/modules/sync"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Run wires the whole application: config, storage, cache, HTTP modules and
// the background worker, then serves until the process is stopped.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Server.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}

	c, err := cache.NewCache(cfg.Redis)
	if err != nil {
		return err
	}

	q := queue.NewClient(cfg.Redis)
	defer q.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	integration.Init(e, db, c)
	event.Init(e, db)
	syncmodule.Init(e, db, q)

	go runWorker(cfg, db)

	return e.Start(fmt.Sprintf(":%d", cfg.Server.Port))
}

// runWorker serves background sync tasks next to the HTTP server.
func runWorker(cfg *config.Config, db database.IDatabase) {
	srv := asynq.NewServer(queue.RedisOpt(cfg.Redis), asynq.Config{
		Concurrency: 5,
	})

	mux := asynq.NewServeMux()
	syncmodule.RegisterWorker(mux, db)

	if err := srv.Run(mux); err != nil {
		logger.Error("Server:Worker:Error", "error", err)
	}
}
