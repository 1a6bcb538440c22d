// chunkplan-worker — строит план чанков ровно для одного задания.
//
// Запускается диспетчером в рабочей директории задания:
//
//	chunkplan-worker --job job.json >> chunks_sites_run.log 2>&1
//
// job.json — дескриптор запуска (mode=worker). Вызов с любым другим
// дескриптором отклоняется до обращения к каталогу. Ненулевой код выхода
// означает сбой задания; подробности в логе.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/chunkplan/internal/config"
	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/telemetry"
	"github.com/shaiso/chunkplan/internal/worker"
)

// errMissingJob — бинарь вызван не диспетчером.
var errMissingJob = errors.New("missing --job: chunkplan-worker is started by the dispatcher, do not call it directly")

func main() {
	var jobPath string
	logger := telemetry.SetupLogger()

	cmd := &cobra.Command{
		Use:           "chunkplan-worker --job FILE",
		Short:         "Design the chunking plan for exactly one job",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobPath == "" {
				return errMissingJob
			}

			desc, err := domain.ReadDescriptor(jobPath)
			if err != nil {
				return err
			}

			err = worker.Main(cmd.Context(), desc, worker.Deps{
				CatalogDSN: os.Getenv(config.EnvCatalogDBURL),
			})
			if err != nil {
				return err
			}
			logger.Info("worker finished", "job", desc.Job.Key())
			return nil
		},
	}
	cmd.Flags().StringVar(&jobPath, "job", "", "Path to the job descriptor written by the dispatcher")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx = telemetry.WithLogger(ctx, logger)
	err := cmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}
