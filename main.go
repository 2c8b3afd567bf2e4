package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/member-accounts-be/internal/api"
	"github.com/isdelr/member-accounts-be/internal/auth"
	"github.com/isdelr/member-accounts-be/internal/config"
	"github.com/isdelr/member-accounts-be/internal/database"
	"github.com/isdelr/member-accounts-be/internal/logger"
	"github.com/isdelr/member-accounts-be/internal/repositories/users"
	"github.com/isdelr/member-accounts-be/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel)

	// Set up the user store
	repo, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize user store")
	}
	defer closeStore()

	// Set up services
	userService := services.NewUserService(repo, auth.NewHasher(cfg.BcryptCost), cfg.DeletePolicy)

	// Set up router
	router := api.NewRouter(userService, cfg.CORSOrigins)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("delete_policy", cfg.DeletePolicy).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

// openStore connects the backend named by the store URL and returns its
// repository together with the function that releases it.
func openStore(cfg *config.Config) (users.Repository, func(), error) {
	driver, err := cfg.StoreDriver()
	if err != nil {
		return nil, nil, err
	}

	switch driver {
	case config.DriverSQLite:
		db, err := database.New(cfg.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("apply database migrations: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath()).Msg("Using sqlite user store")
		return users.NewSQLiteRepository(db), func() { db.Close() }, nil

	default:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()

		client, db, err := database.NewMongo(ctx, cfg.StoreURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateMongo(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info().Str("database", db.Name()).Msg("Using mongo user store")

		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to disconnect from mongo")
			}
		}
		return users.NewMongoRepository(db.Collection(database.UsersCollection)), closeFn, nil
	}
}
