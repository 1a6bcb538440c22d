package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/chunkplan/internal/dispatcher"
	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/gate"
	"github.com/shaiso/chunkplan/internal/species"
	"github.com/shaiso/chunkplan/internal/store"
	"github.com/shaiso/chunkplan/internal/telemetry"
)

// ErrWorkerModeFlag — пользователь передал внутренний флаг worker'а.
var ErrWorkerModeFlag = errors.New("--zzz-worker-mode is internal: workers are started by the dispatcher with a job descriptor")

// NewComputeChunksCmd создаёт команду compute-chunks.
func NewComputeChunksCmd(appFn func() *App, outputFn func() *Output) *cobra.Command {
	var (
		db         dbFlags
		speciesArg string
		chunkType  string
		chunkSize  int
		force      bool
		debug      bool
		numCores   int
		inProcess  bool
		workerMode bool
	)

	cmd := &cobra.Command{
		Use:   "compute-chunks",
		Short: "Design chunks of sites or centroids for a set of species",
		Long: `Design chunks of sites (run_snps, merge_snps) or gene centroids (genes)
for every species in the set and publish one artifact per species.

Existing artifacts are left alone unless --force is given. Each species is
designed by an isolated worker in its own workspace; at most --num-cores
workers run at once.`,
		Example: `  chunkplan compute-chunks --species all --chunk-type genes --remote-root s3://bucket/uhgg
  chunkplan compute-chunks --species 3:30 --chunk-type run_snps --chunk-size 500000
  chunkplan compute-chunks --species 100001,100002 --force --debug --in-process`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workerMode {
				return ErrWorkerModeFlag
			}

			app := appFn()
			out := outputFn()
			cfg := &app.Config
			ctx := cmd.Context()

			db.apply(cmd, cfg)
			if cmd.Flags().Changed("num-cores") {
				cfg.NumCores = numCores
			}
			if inProcess {
				cfg.Worker.InProcess = true
			}

			kind, err := domain.ParseChunkKind(chunkType)
			if err != nil {
				return err
			}
			if chunkSize <= 0 {
				return fmt.Errorf("%w: %d", domain.ErrInvalidChunkSize, chunkSize)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			dbSpec, err := cfg.DBSpec()
			if err != nil {
				return err
			}

			s, err := app.Store()
			if err != nil {
				return err
			}
			cat, err := app.Catalog(ctx, dbSpec)
			if err != nil {
				return err
			}
			reps, err := cat.Representatives(ctx)
			if err != nil {
				return err
			}
			ids, err := species.Resolve(speciesArg, reps)
			if err != nil {
				return err
			}

			metrics, registry := app.Metrics()
			if addr := cfg.Metrics.Addr; addr != "" {
				metricsCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				telemetry.ServeMetrics(metricsCtx, addr, registry, app.Logger)
			}

			checker := store.NewExistenceChecker(s, cfg.RetryPolicy(), app.Logger)
			checker.OnRetry = metrics.ExistsRetried

			runner, err := app.Runner()
			if err != nil {
				return err
			}

			d := dispatcher.New(dispatcher.Config{
				Gate:      gate.New(cfg.NumCores),
				Catalog:   cat,
				Checker:   checker,
				Runner:    runner,
				DB:        dbSpec,
				Kind:      kind,
				ChunkSize: chunkSize,
				Force:     force,
				Debug:     debug,
				Notifier:  app.Notifier(ctx),
				Metrics:   metrics,
				Logger:    app.Logger,
			})

			report, runErr := d.Run(ctx, ids)
			if report == nil {
				return runErr
			}

			headers := []string{"SPECIES", "GENOME", "OUTCOME", "DURATION", "LOCATION", "ERROR"}
			rows := make([][]string, len(report.Results))
			for i, r := range report.Results {
				rows[i] = []string{
					r.SpeciesID, r.GenomeID, r.Outcome.String(),
					r.Duration.Round(time.Millisecond).String(), r.Location, r.ErrorText,
				}
			}
			out.Print(headers, rows, report)

			if failed := report.Failed(); len(failed) > 0 {
				for _, r := range failed {
					for _, line := range r.LogTail {
						out.Error(fmt.Sprintf("[%s] %s", r.SpeciesID, line))
					}
				}
				return fmt.Errorf("%d of %d species failed: %w", len(failed), len(report.Results), runErr)
			}
			out.Success(fmt.Sprintf("Designed %d, skipped %d of %d species",
				report.Count(domain.OutcomeSucceeded), report.Count(domain.OutcomeSkipped), len(report.Results)))
			return nil
		},
	}

	db.register(cmd)
	cmd.Flags().StringVar(&speciesArg, "species", "", "species[,species...], a slice idx:modulus (e.g. 1:30), or 'all'")
	cmd.Flags().StringVar(&chunkType, "chunk-type", string(domain.ChunkKindRunSNPs), "Chunk type (run_snps, merge_snps, genes)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", domain.DefaultChunkSize, "Number of genomic sites or centroids per chunk")
	cmd.Flags().BoolVar(&force, "force", false, "Recompute artifacts that already exist")
	cmd.Flags().BoolVar(&debug, "debug", false, "Keep workspaces and skip remote delete/upload")
	cmd.Flags().IntVar(&numCores, "num-cores", 0, "Maximum concurrent workers (default: physical cores)")
	cmd.Flags().BoolVar(&inProcess, "in-process", false, "Run workers in this process instead of spawning chunkplan-worker")
	cmd.Flags().BoolVar(&workerMode, "zzz-worker-mode", false, "")
	_ = cmd.Flags().MarkHidden("zzz-worker-mode")
	_ = cmd.MarkFlagRequired("species")

	return cmd
}
