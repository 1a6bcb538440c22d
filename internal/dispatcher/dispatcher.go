package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/gate"
	"github.com/shaiso/chunkplan/internal/isolation"
	"github.com/shaiso/chunkplan/internal/layout"
	"github.com/shaiso/chunkplan/internal/telemetry"
	"github.com/shaiso/chunkplan/internal/workspace"
)

// logTailLines — сколько строк лога упавшего worker'а попадает в отчёт.
const logTailLines = 20

// Catalog — разрешение вида в репрезентативный геном.
type Catalog interface {
	GenomeFor(ctx context.Context, speciesID string) (string, error)
}

// Checker — проверка существования артефакта (обычно store.ExistenceChecker).
type Checker interface {
	Exists(ctx context.Context, loc string) (bool, error)
}

// Notifier публикует уведомления об опубликованных артефактах.
type Notifier interface {
	PublishArtifactReady(ctx context.Context, event domain.ArtifactReady) error
}

// Dispatcher распределяет задания по видам.
type Dispatcher struct {
	gate     *gate.Gate
	catalog  Catalog
	checker  Checker
	runner   isolation.Runner
	layout   *layout.Layout
	db       domain.DBSpec
	notifier Notifier
	metrics  *telemetry.Metrics

	kind      domain.ChunkKind
	chunkSize int
	force     bool
	debug     bool

	logger *slog.Logger
}

// Config — конфигурация Dispatcher.
type Config struct {
	// Gate ограничивает число одновременно работающих worker'ов
	// (если nil — gate.New(gate.DefaultSize())).
	Gate *gate.Gate

	Catalog Catalog
	Checker Checker
	Runner  isolation.Runner

	// DB — координаты базы, передаются worker'у в дескрипторе.
	DB domain.DBSpec

	// Layout (опционально; если nil — layout.FromDB(DB)).
	Layout *layout.Layout

	Kind      domain.ChunkKind
	ChunkSize int // размер чанка (default: domain.DefaultChunkSize)
	Force     bool
	Debug     bool

	// Notifier (опционально)
	Notifier Notifier

	// Metrics (опционально)
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// New создаёт Dispatcher.
func New(cfg Config) *Dispatcher {
	g := cfg.Gate
	if g == nil {
		g = gate.New(gate.DefaultSize())
	}

	l := cfg.Layout
	if l == nil {
		l = layout.FromDB(cfg.DB)
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		gate:      g,
		catalog:   cfg.Catalog,
		checker:   cfg.Checker,
		runner:    cfg.Runner,
		layout:    l,
		db:        cfg.DB,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		kind:      cfg.Kind,
		chunkSize: chunkSize,
		force:     cfg.Force,
		debug:     cfg.Debug,
		logger:    logger,
	}
}

// Run обрабатывает набор видов и ждёт завершения всех.
//
// Возвращает отчёт по каждому виду и объединённую ошибку упавших видов.
func (d *Dispatcher) Run(ctx context.Context, speciesIDs []string) (*Report, error) {
	if len(speciesIDs) == 0 {
		return nil, ErrNoSpecies
	}
	if _, err := domain.ParseChunkKind(string(d.kind)); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger := telemetry.WithRunID(d.logger, runID)
	report := &Report{
		RunID:   runID,
		Kind:    string(d.kind),
		Results: make([]Result, len(speciesIDs)),
	}

	logger.Info("dispatch started",
		"species", len(speciesIDs),
		"chunk_kind", d.kind,
		"chunk_size", d.chunkSize,
		"gate_size", d.gate.Size(),
		"force", d.force,
		"debug", d.debug,
	)
	started := time.Now()

	var g errgroup.Group
	g.SetLimit(len(speciesIDs))
	for i, speciesID := range speciesIDs {
		g.Go(func() error {
			res := d.dispatch(ctx, runID, speciesID, logger)
			d.metrics.ObserveOutcome(string(d.kind), res.Outcome.String())
			report.Results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	err := report.Err()
	logger.Info("dispatch finished",
		"succeeded", report.Count(domain.OutcomeSucceeded),
		"skipped", report.Count(domain.OutcomeSkipped),
		"failed", report.Count(domain.OutcomeFailed),
		"duration", time.Since(started),
	)
	return report, err
}

// dispatch обрабатывает один вид.
func (d *Dispatcher) dispatch(ctx context.Context, runID, speciesID string, logger *slog.Logger) Result {
	started := time.Now()
	logger = telemetry.WithSpecies(logger, speciesID)
	res := Result{SpeciesID: speciesID, Outcome: domain.OutcomePending}

	fail := func(err error) Result {
		res.Outcome = domain.OutcomeFailed
		res.Err = err
		res.ErrorText = err.Error()
		res.Duration = time.Since(started)
		logger.Error("species failed", "error", err, "log", res.LogPath)
		return res
	}

	// 1. Геном: неизвестный вид — ошибка конфигурации, без повторов
	genomeID, err := d.catalog.GenomeFor(ctx, speciesID)
	if err != nil {
		return fail(err)
	}
	res.GenomeID = genomeID

	job := domain.ChunkJob{
		SpeciesID: speciesID,
		GenomeID:  genomeID,
		Kind:      d.kind,
		ChunkSize: d.chunkSize,
	}
	if err := job.Validate(); err != nil {
		return fail(err)
	}

	// 2. RemoteLocation
	res.Location = d.layout.RemoteArtifact(job)

	// 3. Кэш
	exists, err := d.checker.Exists(ctx, res.Location)
	if err != nil {
		return fail(err)
	}
	if exists {
		if !d.force {
			logger.Info("artifact already exists, specify --force to overwrite", "location", res.Location)
			res.Outcome = domain.OutcomeSkipped
			res.Duration = time.Since(started)
			return res
		}
		res.Redesigned = true
	}
	status := layout.StatusMessage(job, res.Redesigned)

	// 4-7. Worker под разрешением Gate
	err = d.gate.Do(ctx, func() error {
		return d.runWorker(ctx, job, status, logger, &res)
	})
	if err != nil {
		return fail(err)
	}

	res.Outcome = domain.OutcomeSucceeded
	res.Duration = time.Since(started)
	logger.Info("species completed", "location", res.Location, "duration", res.Duration)

	if !d.debug {
		d.notify(ctx, runID, job, &res, logger)
	}
	return res
}

// runWorker готовит рабочую директорию, запускает worker и убирает за ним.
func (d *Dispatcher) runWorker(ctx context.Context, job domain.ChunkJob, status string, logger *slog.Logger, res *Result) error {
	logger.Info(status)

	ws, err := workspace.Prepare(d.layout.WorkspaceDir(job), layout.LogName(job.Kind), d.debug)
	if err != nil {
		return err
	}
	res.LogPath = ws.LogPath()
	defer func() {
		ws.Cleanup(logger)
		if ws.Removed() {
			res.LogPath = ""
		}
	}()

	if err := ws.SeedLog(status, d.runner.Invocation(ws)); err != nil {
		return err
	}

	desc := domain.NewWorkerDescriptor(job, d.db, d.debug)

	d.metrics.WorkerStarted()
	started := time.Now()
	err = d.runner.Run(ctx, desc, ws, logger)
	d.metrics.WorkerFinished(string(job.Kind), time.Since(started))

	if err != nil {
		if tail, tailErr := ws.Tail(logTailLines); tailErr == nil {
			res.LogTail = tail
		}
		if !errors.Is(err, isolation.ErrWorkerFailed) {
			err = fmt.Errorf("%w: %w", isolation.ErrWorkerFailed, err)
		}
		// Без debug лог уходит вместе с рабочей директорией.
		if d.debug {
			return fmt.Errorf("%w, see %s", err, ws.LogPath())
		}
		return fmt.Errorf("%w (workspace log removed, last %d lines kept in report)", err, len(res.LogTail))
	}
	return nil
}

// notify публикует ArtifactReady. Ошибка публикации не влияет на исход вида.
func (d *Dispatcher) notify(ctx context.Context, runID string, job domain.ChunkJob, res *Result, logger *slog.Logger) {
	if d.notifier == nil {
		return
	}
	event := domain.ArtifactReady{
		RunID:      runID,
		SpeciesID:  job.SpeciesID,
		GenomeID:   job.GenomeID,
		Kind:       job.Kind,
		ChunkSize:  job.ChunkSize,
		Location:   res.Location,
		Redesigned: res.Redesigned,
		At:         time.Now().UTC(),
	}
	if err := d.notifier.PublishArtifactReady(ctx, event); err != nil {
		logger.Warn("failed to publish artifact.ready", "error", err)
	}
}
