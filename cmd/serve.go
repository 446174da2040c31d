package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trading-journal/auth"
	"trading-journal/database"
	"trading-journal/handlers"
	"trading-journal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	store, closeStore, err := refreshStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	router := handlers.NewRouter(handlers.Deps{
		DB:          db,
		Journal:     service.NewJournal(db, log),
		Users:       service.NewUsers(db, log),
		Instruments: service.NewInstruments(db),
		Issuer:      auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, store),
		Logger:      log,
		CORSOrigin:  cfg.Server.CORSOrigin,
	})

	server := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr), zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errs:
		return err
	case s := <-sig:
		log.Info("shutting down", zap.String("signal", s.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// refreshStore uses Redis when an address is configured and falls back to
// process memory otherwise.
func refreshStore(ctx context.Context) (auth.RefreshStore, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Warn("redis.addr is empty, refresh tokens are kept in memory")
		return auth.NewMemoryStore(), func() {}, nil
	}
	rs := auth.NewRedisStore(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if ctx == nil {
		ctx = context.Background()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		_ = rs.Close()
		return nil, nil, err
	}
	return rs, func() { _ = rs.Close() }, nil
}
