package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pzyt/crystal-healing/internal/api"
	"github.com/pzyt/crystal-healing/internal/app/narrative"
	"github.com/pzyt/crystal-healing/internal/app/prediction"
	"github.com/pzyt/crystal-healing/internal/infra/alipay"
	"github.com/pzyt/crystal-healing/internal/infra/auth"
	"github.com/pzyt/crystal-healing/internal/infra/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required (env or [auth].jwt_secret)")
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	store, err := sqlite.Open(cfg.Database.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	if inserted, err := store.SeedCrystals(); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	} else if inserted > 0 {
		log.Info("catalog seeded", zap.Int("crystals", inserted))
	}

	generator := narrative.NewGenerator(narrative.Config{
		APIKey:  cfg.SiliconFlow.APIKey,
		BaseURL: cfg.SiliconFlow.BaseURL,
		Model:   cfg.SiliconFlow.Model,
		Timeout: cfg.NarrativeTimeout(),
	}, log.Named("narrative"))
	if cfg.SiliconFlow.APIKey == "" {
		log.Warn("no SiliconFlow API key; narratives come from the local generator")
	}

	payClient, err := alipay.New(alipay.Config{
		AppID:         cfg.Alipay.AppID,
		PrivateKeyPEM: cfg.Alipay.PrivateKey,
		PublicKeyPEM:  cfg.Alipay.PublicKey,
		Gateway:       cfg.Alipay.Gateway,
		ReturnURL:     cfg.Alipay.ReturnURL,
		NotifyURL:     cfg.Alipay.NotifyURL,
	})
	if err != nil {
		return fmt.Errorf("init alipay: %w", err)
	}
	if !payClient.Configured() {
		log.Warn("alipay not configured; payments run in mock mode")
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL())
	predictions := prediction.NewService(store, generator, log.Named("prediction"))
	server := api.NewServer(store, predictions, tokens, payClient, cfg, log.Named("api"))

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
