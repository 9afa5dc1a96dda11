// Command pixlctl is the PIXL operator CLI (spec §6): populate a project's
// extraction queue from a cohort, start/update/stop extraction, trigger a
// cohort-wide export, and check system status. Command shape grounded on
// packages/apisix-go-runner/cmd/go-runner/main.go's root/AddCommand/Execute
// pattern, the pack's only cobra user.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/cli"
	"github.com/UCLH-Foundry/PIXL/internal/hasher"
	"github.com/UCLH-Foundry/PIXL/internal/queue"
	"github.com/UCLH-Foundry/PIXL/internal/registry"

	"github.com/jackc/pgx/v5/pgxpool"
)

func buildDeps() (*cli.Deps, func(), error) {
	logger, _ := zap.NewProduction()

	brokerURL := os.Getenv("PIXL_BROKER_URL")
	dsn := os.Getenv("PIXL_DATABASE_DSN")
	controlURL := envDefault("PIXL_CONTROL_API_URL", "http://localhost:8080")
	if brokerURL == "" || dsn == "" {
		logger.Sync()
		return nil, nil, fmt.Errorf("PIXL_BROKER_URL and PIXL_DATABASE_DSN must be set")
	}

	q, err := queue.Connect(brokerURL, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		q.Close()
		logger.Sync()
		return nil, nil, err
	}

	repo := registry.NewRepository(pool)
	if hasherURL := os.Getenv("PIXL_HASHER_URL"); hasherURL != "" {
		repo = repo.WithHasher(hasher.New(hasherURL))
	}

	deps := &cli.Deps{
		Queue:    q,
		Registry: repo,
		Control:  cli.NewControlClient(controlURL),
		Logger:   logger,
	}
	cleanup := func() {
		pool.Close()
		q.Close()
		logger.Sync()
	}
	return deps, cleanup, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newPopulateCommand() *cobra.Command {
	var projectName, subject, cohortDir, cohortCSV string
	var noRestart bool

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Queue a project's cohort for extraction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, cleanup, err := buildDeps()
			if err != nil {
				return err
			}
			defer cleanup()

			extractDatetime := time.Now().UTC()
			var messages []registry.StudyMessage
			switch {
			case cohortDir != "":
				messages, err = cli.ReadCohortParquet(cohortDir, projectName, extractDatetime)
			case cohortCSV != "":
				messages, err = cli.ReadCohortCSV(cohortCSV, projectName, extractDatetime)
			default:
				return fmt.Errorf("one of --cohort-dir or --cohort-csv is required")
			}
			if err != nil {
				return err
			}

			n, err := cli.Populate(cmd.Context(), deps, subject, projectName, messages, noRestart)
			if err != nil {
				return err
			}
			fmt.Printf("queued %d studies\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectName, "project-name", "", "project name (required)")
	cmd.Flags().StringVar(&subject, "queue", "pixl.imaging.study", "queue subject to populate")
	cmd.Flags().StringVar(&cohortDir, "cohort-dir", "", "OMOP ES extract directory")
	cmd.Flags().StringVar(&cohortCSV, "cohort-csv", "", "flat cohort CSV file")
	cmd.Flags().BoolVar(&noRestart, "no-restart", false, "ignore any existing checkpoint and re-derive from the cohort")
	cmd.MarkFlagRequired("project-name")
	return cmd
}

func newStartCommand() *cobra.Command {
	var rate int
	cmd := &cobra.Command{
		Use:   "start <queue>",
		Short: "Start extraction on a queue at the given rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := buildDeps()
			if err != nil {
				return err
			}
			defer cleanup()
			return cli.StartQueue(cmd.Context(), deps.Control, args[0], rate)
		},
	}
	cmd.Flags().IntVar(&rate, "rate", 0, "studies per second (must be > 0)")
	return cmd
}

func newUpdateCommand() *cobra.Command {
	var rate int
	cmd := &cobra.Command{
		Use:   "update <queue>",
		Short: "Update a running queue's extraction rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := buildDeps()
			if err != nil {
				return err
			}
			defer cleanup()
			return cli.UpdateRate(cmd.Context(), deps.Control, args[0], rate)
		},
	}
	cmd.Flags().IntVar(&rate, "rate", 0, "studies per second (0 pauses extraction)")
	return cmd
}

func newStopCommand() *cobra.Command {
	var subject, durable, streamName string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Drain a queue to a checkpoint file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, cleanup, err := buildDeps()
			if err != nil {
				return err
			}
			defer cleanup()
			n, err := cli.Stop(cmd.Context(), deps, subject, durable, streamName)
			if err != nil {
				return err
			}
			fmt.Printf("drained %d messages\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "queue", "pixl.imaging.study", "queue subject to drain")
	cmd.Flags().StringVar(&durable, "durable", "pixl-cli-stop", "durable consumer name")
	cmd.Flags().StringVar(&streamName, "stream", queue.StreamImagingStudy, "JetStream stream name")
	return cmd
}

func newExportCommand() *cobra.Command {
	var projectName string
	cmd := &cobra.Command{
		Use:   "export-patient-data",
		Short: "Trigger a cohort-wide parquet export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, cleanup, err := buildDeps()
			if err != nil {
				return err
			}
			defer cleanup()
			return cli.TriggerExport(cmd.Context(), deps, projectName, time.Now().UTC())
		},
	}
	cmd.Flags().StringVar(&projectName, "project-name", "", "project name (required)")
	cmd.MarkFlagRequired("project-name")
	return cmd
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report Control API and queue health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, cleanup, err := buildDeps()
			if err != nil {
				return err
			}
			defer cleanup()
			report, err := cli.Status(cmd.Context(), deps, []string{queue.StreamImagingStudy, queue.StreamExportPatient})
			if err != nil {
				return err
			}
			fmt.Printf("control api up: %v\n", report.ControlAPIUp)
			for _, q := range report.Queues {
				fmt.Printf("  %s: %d pending\n", q.Stream, q.Pending)
			}
			return nil
		},
	}
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:  "pixlctl [command]",
		Long: "pixlctl drives PIXL's cohort extraction, rate limiting, and export from the command line.",
	}

	root.AddCommand(
		newPopulateCommand(),
		newStartCommand(),
		newUpdateCommand(),
		newStopCommand(),
		newExportCommand(),
		newStatusCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
