// Command export-worker runs the Exporter (spec §4.7): it consumes
// per-study export messages (packaging and uploading stable anonymised
// studies to a project's configured destination) and serves the Control
// API's cohort-wide /export-patient-data trigger (spec §4.8), which writes
// the project's parquet linker table on demand rather than per message.
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

	"github.com/UCLH-Foundry/PIXL/internal/config"
	"github.com/UCLH-Foundry/PIXL/internal/controlapi"
	"github.com/UCLH-Foundry/PIXL/internal/exporter"
	"github.com/UCLH-Foundry/PIXL/internal/exporter/uploader"
	"github.com/UCLH-Foundry/PIXL/internal/projectconfig"
	"github.com/UCLH-Foundry/PIXL/internal/queue"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
	"github.com/UCLH-Foundry/PIXL/internal/secrets"
	"github.com/UCLH-Foundry/PIXL/internal/telemetry"
)

// cohortExporter adapts Exporter.ExportCohortParquet (which needs the
// on-disk OMOP/export directories) to controlapi.ExportTrigger's
// (ctx, projectName, extractDatetime) shape.
type cohortExporter struct {
	exp       *exporter.Exporter
	exportDir string
	omopDir   string
}

func (c cohortExporter) TriggerExport(ctx context.Context, projectName string, extractDatetime time.Time) error {
	return c.exp.ExportCohortParquet(ctx, c.exportDir, c.omopDir, projectName, extractDatetime)
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load("export-worker")
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

	natsClient, err := queue.Connect(cfg.BrokerURL, logger)
	if err != nil {
		logger.Fatal("broker connection failed", zap.Error(err))
	}
	defer natsClient.Close()
	if err := natsClient.ProvisionStreams([]queue.StreamSpec{
		{Name: queue.StreamExportPatient, Subjects: []string{"pixl.export.patient"}},
	}); err != nil {
		logger.Fatal("stream provisioning failed", zap.Error(err))
	}

	repo := registry.NewRepository(pool)
	projects := projectconfig.NewStore(cfg.ProjectConfigDir)

	factory := func(dest projectconfig.Destination) (uploader.Uploader, error) {
		creds := uploader.Credentials{
			Username: pixlSecrets.ExportUsername,
			Password: pixlSecrets.ExportPassword,
			APIToken: pixlSecrets.ExportAPIToken,
		}
		return uploader.New(uploader.Kind(dest.Kind), dest.Host, creds)
	}

	exp := exporter.New(repo, projects, factory, logger)

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	consumer := exporter.NewConsumer(natsClient, exp, logger)
	go func() {
		if err := consumer.Start(consumerCtx, queue.StreamExportPatient); err != nil {
			logger.Error("exporter consumer stopped", zap.Error(err))
		}
	}()

	cohort := cohortExporter{
		exp:       exp,
		exportDir: envDefault("PIXL_EXPORT_DIR", "/exports"),
		omopDir:   envDefault("PIXL_OMOP_DIR", "/omop"),
	}

	e := controlapi.NewServer(logger, cfg.ServiceName,
		controlapi.NewExportHandler(cohort),
		controlapi.HeartbeatHandler{},
	)

	addr := envDefault("PIXL_LISTEN_ADDR", ":8080")
	go func() {
		logger.Info("export-worker HTTP server listening", zap.String("addr", addr))
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

	consumerCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown error", zap.Error(err))
	}
	logger.Info("export-worker shut down cleanly")
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
