// Command anon-callback runs the Anonymisation Engine's HTTP surface (spec
// §4.6): one endpoint, POST /anonymise, that gates, validates, de-identifies,
// and pseudonymises a single DICOM instance's dataset against its project's
// tag scheme.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/anoncallback"
	"github.com/UCLH-Foundry/PIXL/internal/anonymise"
	"github.com/UCLH-Foundry/PIXL/internal/config"
	"github.com/UCLH-Foundry/PIXL/internal/controlapi"
	"github.com/UCLH-Foundry/PIXL/internal/hasher"
	"github.com/UCLH-Foundry/PIXL/internal/projectconfig"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
	"github.com/UCLH-Foundry/PIXL/internal/secrets"
	"github.com/UCLH-Foundry/PIXL/internal/telemetry"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load("anon-callback")
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	if cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), cfg.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
			logger.Info("OTel tracer initialized", zap.String("endpoint", cfg.OTELEndpoint))
		}
	}

	vaultManager, err := secrets.NewManager(cfg.VaultAddr, cfg.VaultToken)
	if err != nil {
		logger.Fatal("vault connection failed", zap.Error(err))
	}
	pixlSecrets, err := vaultManager.LoadPIXLSecrets(cfg.VaultSecretPath)
	if err != nil {
		logger.Fatal("failed to load secrets from vault", zap.Error(err))
	}
	if len(pixlSecrets.Salt) == 0 {
		logger.Fatal("pseudonymisation salt not found in vault")
	}
	salt := pixlSecrets.Salt

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to parse database dsn", zap.Error(err))
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()
	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("connected to registry database (OTel-instrumented)")

	repo := registry.NewRepository(pool)
	projects := projectconfig.NewStore(cfg.ProjectConfigDir)
	engine := anonymise.NewEngine(hasher.New(cfg.HasherURL))
	handler := anoncallback.NewHandler(engine, repo, projects, salt, logger)

	e := controlapi.NewServer(logger, cfg.ServiceName,
		handler,
		controlapi.HeartbeatHandler{},
	)

	addr := envDefault("PIXL_LISTEN_ADDR", ":8080")
	go func() {
		logger.Info("anon-callback HTTP server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failure", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown error", zap.Error(err))
	}
	logger.Info("anon-callback shut down cleanly")
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
