package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/skywatch/skywatch/internal/api"
	"github.com/skywatch/skywatch/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store := storage.NewSqliteStore(config.Storage.DBPath)
	defer store.Close()

	users := make([]api.User, len(config.Auth.Users))
	for i, u := range config.Auth.Users {
		users[i] = api.User{Username: u.Username, PasswordHash: u.PasswordHash, Role: u.Role}
	}
	auth := api.NewAuth(config.Auth.JWTSecret, config.Auth.TokenTTL(), users)

	server := &http.Server{
		Addr:         config.Server.ListenAddr,
		Handler:      api.NewServer(store, auth, config.Server.APIConfig(), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving API", slog.String("addr", config.Server.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		logger.Info("server stopped")
		return nil
	}
}
