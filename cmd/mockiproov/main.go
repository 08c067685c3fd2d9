// Command mockiproov serves a local stand-in for the iProov endpoints used by
// photoenrol. Point API_BASE_URL at it for offline runs.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"photoenrol/internal/iproov/mockserver"
	"photoenrol/internal/platform/logger"
)

const defaultPort = "8089"

var version = "dev"

func main() {
	log, _ := logger.New(os.Getenv("LOG_LEVEL"), os.Stdout)
	if err := run(log); err != nil {
		log.Error("mock iproov stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	port := getEnv("PORT", defaultPort)

	opts := []mockserver.Option{mockserver.WithLogger(log), mockserver.WithVersion(version)}
	if creds, ok := credentialsFromEnv(); ok {
		opts = append(opts, mockserver.WithCredentials(creds))
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mockserver.New(opts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("mock iproov listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down mock iproov")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// credentialsFromEnv enables credential checks when the same variables
// photoenrol reads are all set.
func credentialsFromEnv() (mockserver.Credentials, bool) {
	c := mockserver.Credentials{
		APIKey:        os.Getenv("SP_KEY"),
		Secret:        os.Getenv("SP_SECRET"),
		OAuthUsername: os.Getenv("OAUTH_USERNAME"),
		OAuthPassword: os.Getenv("OAUTH_PW"),
	}
	ok := c.APIKey != "" && c.Secret != "" && c.OAuthUsername != "" && c.OAuthPassword != ""
	return c, ok
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
