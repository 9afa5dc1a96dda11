// Command imaging-worker runs the Study Coordinator (spec §4.5): it
// consumes queued study messages, retrieves or re-tags them against the
// raw Image Store, and forwards stable studies on to anonymisation. It
// also serves the Control API routes that act on this worker's process —
// the imaging queue's token-bucket-refresh-rate and the supplemented
// /studies/recent query — plus a heartbeat.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/config"
	"github.com/UCLH-Foundry/PIXL/internal/controlapi"
	"github.com/UCLH-Foundry/PIXL/internal/coordinator"
	"github.com/UCLH-Foundry/PIXL/internal/imagestore"
	"github.com/UCLH-Foundry/PIXL/internal/queue"
	"github.com/UCLH-Foundry/PIXL/internal/ratelimit"
	"github.com/UCLH-Foundry/PIXL/internal/secrets"
	"github.com/UCLH-Foundry/PIXL/internal/telemetry"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load("imaging-worker")
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

	natsClient, err := queue.Connect(cfg.BrokerURL, logger)
	if err != nil {
		logger.Fatal("broker connection failed", zap.Error(err))
	}
	defer natsClient.Close()
	if err := natsClient.ProvisionStreams([]queue.StreamSpec{
		{Name: queue.StreamImagingStudy, Subjects: []string{"pixl.imaging.study"}},
	}); err != nil {
		logger.Fatal("stream provisioning failed", zap.Error(err))
	}

	adapter := imagestore.NewHTTPAdapter(imagestore.Config{
		BaseURL:  cfg.ImageStoreURL,
		Username: pixlSecrets.ImageStoreUsername,
		Password: pixlSecrets.ImageStorePassword,
		AET:      pixlSecrets.ImageStoreAET,
	})

	bucket := ratelimit.NewBucket(
		envInt("PIXL_RATE_CAPACITY", 10),
		envInt("PIXL_RATE_REFILL", 5),
	)
	stopRefill := startRefillLoop(bucket, time.Second)
	defer stopRefill()

	coord := coordinator.New(adapter, bucket, coordinator.Config{
		VNAModality:       envDefault("PIXL_VNA_MODALITY", "VNA"),
		PrivateTagGroup:   0x000B,
		PrivateTagCreator: "UCLH PIXL",
		TransferTimeout:   2 * time.Minute,
	})

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	consumer := coordinator.NewConsumer(natsClient, coord, logger)
	go func() {
		if err := consumer.Start(consumerCtx, queue.StreamImagingStudy); err != nil {
			logger.Error("study coordinator consumer stopped", zap.Error(err))
		}
	}()

	e := controlapi.NewServer(logger, cfg.ServiceName,
		controlapi.NewRateLimitHandler(controlapi.Buckets{cfg.ImagingStudyQueue: bucket}),
		controlapi.NewStudiesHandler(adapter),
		controlapi.HeartbeatHandler{},
	)

	addr := envDefault("PIXL_LISTEN_ADDR", ":8080")
	go func() {
		logger.Info("imaging-worker HTTP server listening", zap.String("addr", addr))
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
	logger.Info("imaging-worker shut down cleanly")
}

// startRefillLoop ticks the bucket's Refill on a fixed interval, returning
// a stop function. The Rate Limiter (spec §4.3) describes a mutex-guarded
// in-process bucket refilled on a timer, not a self-ticking type.
func startRefillLoop(b *ratelimit.Bucket, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				b.Refill()
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
