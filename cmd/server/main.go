package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/comphility/backend/internal/config"
	"github.com/comphility/backend/internal/events"
	"github.com/comphility/backend/internal/handlers"
	"github.com/comphility/backend/internal/httpserver"
	"github.com/comphility/backend/internal/imagestore"
	"github.com/comphility/backend/internal/logging"
	"github.com/comphility/backend/internal/repository"
	"github.com/comphility/backend/internal/search"
	"github.com/comphility/backend/internal/service"
	"github.com/comphility/backend/pkg/db"
	loggingmw "github.com/comphility/backend/pkg/middleware/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if len(cfg.JWTSecret) == 0 {
		log.Fatal("JWT_SECRET is not set")
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	images, err := imagestore.New(cfg.ImageDir)
	if err != nil {
		log.Fatalf("image store init failed: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers,
		events.TopicUserEvents, events.TopicProductEvents, events.TopicCartEvents)

	index, err := search.NewIndex(cfg.ESURL, cfg.ESUser, cfg.ESPassword, "products")
	if err != nil {
		log.Fatalf("search init failed: %v", err)
	}
	if index == nil {
		logger.Info("search index not configured, fuzzy search disabled")
	}

	userRepo := repository.NewGormUserRepository(database)
	productRepo := repository.NewGormProductRepository(database)
	cartRepo := repository.NewGormCartRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, producer)
	productService := service.NewProductService(productRepo, images, index, producer)
	cartService := service.NewCartService(cartRepo, productRepo, producer)
	userAdminService := service.NewUserAdminService(userRepo)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		JWTSecret:      cfg.JWTSecret,
		ImageDir:       images.Dir(),
		AuthHandler:    &handlers.AuthHandler{Auth: authService},
		ProductHandler: &handlers.ProductHandler{Products: productService},
		CartHandler:    &handlers.CartHandler{Cart: cartService},
		UserHandler:    &handlers.UserHandler{Users: userAdminService},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("producer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
