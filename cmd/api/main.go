package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/condo-notify/internal/config"
	jwtinfra "github.com/condo-notify/internal/infrastructure/jwt"
	transporthttp "github.com/condo-notify/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer func() {
		if err := stores.close(); err != nil {
			log.Printf("WARN: closing store: %v", err)
		}
	}()

	gateway, err := newGateway(ctx, cfg)
	if err != nil {
		log.Fatalf("push gateway: %v", err)
	}
	archive, err := newArchive(ctx, cfg)
	if err != nil {
		log.Fatalf("report archive: %v", err)
	}

	// Every route except the health check needs a verified caller.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}

	deps := &transporthttp.Deps{
		Endpoints:     stores.endpoints,
		Templates:     stores.templates,
		Notifications: stores.notifications,
		Gateway:       gateway,
		Archive:       archive,
		Verifier:      jwtProvider,
	}

	router := transporthttp.NewRouter(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s, push=%s)", cfg.AppPort, cfg.AppEnv, cfg.StoreDriver, cfg.PushProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
