package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/auth"
	"github.com/ukydev/transportpro/internal/config"
	"github.com/ukydev/transportpro/internal/db"
	"github.com/ukydev/transportpro/internal/events"
	"github.com/ukydev/transportpro/internal/fleet"
	"github.com/ukydev/transportpro/internal/handlers"
	"github.com/ukydev/transportpro/internal/middleware"
	"github.com/ukydev/transportpro/internal/reports"
	"github.com/ukydev/transportpro/internal/users"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()

	if err := run(cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	store := db.NewStore(client, cfg.MongoDB, cfg.MongoTransactions)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"database":     cfg.MongoDB,
		"transactions": cfg.MongoTransactions,
	}).Info("Connected to MongoDB")

	var publisher events.Publisher = events.Noop{}
	if cfg.MQTTBroker != "" {
		mqttClient, err := events.Connect(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).WithField("broker", cfg.MQTTBroker).Warn("MQTT unavailable, status events disabled")
		} else {
			defer mqttClient.Disconnect(250)
			publisher = events.NewMQTTPublisher(mqttClient, cfg.MQTTTopicPrefix)
			log.WithField("broker", cfg.MQTTBroker).Info("Publishing truck status events")
		}
	}

	if cfg.JWTSecret == config.DefaultJWTSecret {
		if cfg.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		log.Warn("JWT_SECRET not set, using the development default")
	}
	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}

	fleetService := fleet.NewService(store.Trips, store.Trucks, store, publisher)
	userService := users.NewService(store.Users, authService)
	reportService := reports.NewService(store.Trips, store.Trucks)

	if err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:           handlers.NewAuthHandler(authService, store.Users),
		Trips:          handlers.NewTripHandler(fleetService),
		Trucks:         handlers.NewTruckHandler(fleetService),
		Users:          handlers.NewUserHandler(userService),
		Reports:        handlers.NewReportHandler(reportService),
		Authn:          middleware.NewAuthMiddleware(authService, store.Users),
		Store:          store,
		CORSOrigins:    cfg.CORSOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
		TrustedProxies: cfg.TrustedProxies,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
