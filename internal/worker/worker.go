package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shaiso/chunkplan/internal/chunks"
	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/layout"
	"github.com/shaiso/chunkplan/internal/store"
	"github.com/shaiso/chunkplan/internal/telemetry"
)

// Catalog — то, что worker'у нужно от каталога.
type Catalog interface {
	GenomeFor(ctx context.Context, speciesID string) (string, error)
	FetchInputFile(ctx context.Context, job domain.ChunkJob) (string, error)
}

// Worker строит и публикует план чанков для одного задания.
type Worker struct {
	catalog  Catalog
	store    store.Store
	layout   *layout.Layout
	registry *chunks.Registry
	logger   *slog.Logger
}

// Config — конфигурация Worker.
type Config struct {
	Catalog Catalog
	Store   store.Store
	Layout  *layout.Layout

	// Registry алгоритмов (опционально; если nil — chunks.DefaultRegistry()).
	Registry *chunks.Registry

	// Logger
	Logger *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	registry := cfg.Registry
	if registry == nil {
		registry = chunks.DefaultRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		catalog:  cfg.Catalog,
		store:    cfg.Store,
		layout:   cfg.Layout,
		registry: registry,
		logger:   logger,
	}
}

// Run выполняет задание из дескриптора.
func (w *Worker) Run(ctx context.Context, desc domain.JobDescriptor) error {
	if !desc.IsWorker() {
		return domain.ErrNotWorkerInvocation
	}
	if err := desc.Job.Validate(); err != nil {
		return err
	}

	started := time.Now()
	job := desc.Job

	// 1. Геном разрешается заново: worker не доверяет унаследованному состоянию
	genomeID, err := w.catalog.GenomeFor(ctx, job.SpeciesID)
	if err != nil {
		return err
	}
	if job.GenomeID != "" && job.GenomeID != genomeID {
		return fmt.Errorf("%w: species %s dispatched with %s, catalog has %s",
			ErrGenomeMismatch, job.SpeciesID, job.GenomeID, genomeID)
	}
	job.GenomeID = genomeID

	logger := telemetry.WithJob(w.logger, job.SpeciesID, job.GenomeID, string(job.Kind), job.ChunkSize)
	logger.Info("worker started", "debug", desc.Debug)

	// 2. Входной файл алгоритма
	inputPath, err := w.catalog.FetchInputFile(ctx, job)
	if err != nil {
		return err
	}
	logger.Debug("input file ready", "path", inputPath)

	// 3. Построение плана
	designer, err := w.registry.Get(job.Kind)
	if err != nil {
		return err
	}
	artifact, err := designer.Design(ctx, job.SpeciesID, inputPath, job.ChunkSize)
	if err != nil {
		return fmt.Errorf("design %s chunks for species %s: %w", job.Kind, job.SpeciesID, err)
	}

	// 4. Локальный артефакт
	localPath := w.layout.LocalArtifact(job)
	if err := writeArtifact(localPath, artifact); err != nil {
		return err
	}
	logger.Info("artifact written", "path", localPath, "chunks", artifact.Len())

	if desc.Debug {
		logger.Info("debug mode, skipping remote publish", "duration", time.Since(started))
		return nil
	}

	// 5. Удаление удалённой копии строго до загрузки
	remote := w.layout.RemoteArtifact(job)
	if err := w.store.Delete(ctx, remote); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrPublishArtifact, remote, err)
	}
	if err := w.store.Upload(ctx, localPath, remote); err != nil {
		return fmt.Errorf("%w: upload %s: %w", ErrPublishArtifact, remote, err)
	}

	logger.Info("artifact published",
		"remote", remote,
		"duration", time.Since(started),
	)
	return nil
}

// writeArtifact сериализует план в JSON.
func writeArtifact(path string, artifact domain.Artifact) error {
	if artifact == nil {
		artifact = domain.Artifact{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrSerializeArtifact, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializeArtifact, err)
	}
	err = json.NewEncoder(f).Encode(artifact)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializeArtifact, errors.Join(err, os.Remove(path)))
	}
	return nil
}
