package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/glowshop/internal/httpserver"
	"github.com/Skotchmaster/glowshop/internal/repo"
	"github.com/Skotchmaster/glowshop/internal/search"
	"github.com/Skotchmaster/glowshop/internal/service"
	"github.com/Skotchmaster/glowshop/pkg/authclient"
	"github.com/Skotchmaster/glowshop/pkg/config"
	pkgdb "github.com/Skotchmaster/glowshop/pkg/db"
	"github.com/Skotchmaster/glowshop/pkg/events"
	"github.com/Skotchmaster/glowshop/pkg/logging"
	middleware "github.com/Skotchmaster/glowshop/pkg/middleware/auth"
	"github.com/Skotchmaster/glowshop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/glowshop/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	if err := config.OneOf(cfg.DBDriver, "DB_DRIVER", pkgdb.DriverPostgres, pkgdb.DriverSQLite); err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	store := &repo.GormRepo{DB: db}
	err = store.Migrate(ctx)
	cancel()
	if err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers)

	var engine search.Engine
	if cfg.ESURL != "" {
		client, err := search.NewClient(search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			log.Fatalf("search: %v", err)
		}
		es := search.NewESEngine(client, cfg.ESIndex)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := es.Ping(pingCtx); err != nil {
			logger.Warn("search_unavailable", "error", err)
		}
		pingCancel()
		engine = es
	}

	// a typed nil would defeat the middleware's nil check
	var refresher middleware.Refresher
	if cfg.AuthHTTPURL != "" {
		refresher = authclient.NewClient(cfg.AuthHTTPURL)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	e.Use(echomw.CORS())
	if cfg.CSRFEnabled {
		csrfCfg := csrf.DefaultConfig()
		csrfCfg.Secure = cfg.CookieSecure
		e.Use(csrf.Middleware(csrfCfg))
	}

	httpserver.Register(e, &httpserver.Deps{
		DB:              db,
		CartHandler:     &httpserver.CartHTTP{Svc: &service.CartService{Repo: store, Events: publisher}},
		RatingHandler:   &httpserver.RatingHTTP{Svc: &service.RatingService{Repo: store, Events: publisher}, UploadMaxBytes: cfg.UploadMaxBytes},
		OrderHandler:    &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: store, Events: publisher}},
		WishlistHandler: &httpserver.WishlistHTTP{Svc: &service.WishlistService{Repo: store, Events: publisher}},
		CatalogHandler: &httpserver.CatalogHTTP{
			Svc:            &service.CatalogService{Repo: store, Search: engine, Events: publisher},
			UploadMaxBytes: cfg.UploadMaxBytes,
		},
		JWTSecret:  cfg.JWTAccessSecret,
		AuthClient: refresher,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("publisher_close_failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server_stopped")
}
