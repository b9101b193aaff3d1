package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/mindtutor/config"
	"github.com/mohammad-safakhou/mindtutor/internal/agent"
	"github.com/mohammad-safakhou/mindtutor/internal/pipeline"
	"github.com/mohammad-safakhou/mindtutor/internal/realtime"
	"github.com/mohammad-safakhou/mindtutor/internal/runtime"
	"github.com/mohammad-safakhou/mindtutor/internal/search"
	"github.com/mohammad-safakhou/mindtutor/internal/session"
	"github.com/mohammad-safakhou/mindtutor/internal/store"
	"github.com/mohammad-safakhou/mindtutor/provider"
)

func Run(addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	cfg := config.LoadConfig("")

	origins := cfg.Server.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Initialize shared dependencies (top-level DI)
	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}

	secret := cfg.General.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (general.jwt_secret)")
	}

	// Optional redis cache for the problem catalogue
	var cache *Cache
	if cfg.Storage.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
		cache = NewCache(rdb, cfg.Storage.Redis.CacheTTL, log.New(log.Writer(), "[CACHE] ", log.LstdFlags))
	}

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}
	ag := agent.New(llm, log.New(log.Writer(), "[AGENT] ", log.LstdFlags), cfg.Agent.DebugDir, cfg.Agent.RetryBackoff)

	directory := session.NewDirectory()
	hub := realtime.NewHub(directory, log.New(log.Writer(), "[WS] ", log.LstdFlags))
	runner := pipeline.NewRunner(st, ag, directory, hub, log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags))

	index, err := search.NewIndex()
	if err != nil {
		return err
	}
	n, err := index.Load(ctx, st)
	if err != nil {
		return err
	}
	log.Printf("indexed %d problem(s)", n)

	// routes
	api := e.Group("/api")
	auth := &AuthHandler{Store: st, Secret: []byte(secret)}
	auth.Register(api)

	protected := api.Group("")
	protected.Use(runtime.EchoAuthMiddleware([]byte(secret)))
	auth.RegisterProtected(protected)
	(&ProblemsHandler{Store: st, Cache: cache, Index: index}).Register(protected)
	(&SolutionsHandler{Store: st, Runner: runner}).Register(protected)

	e.GET("/ws", hub.Handler([]byte(secret)))

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
