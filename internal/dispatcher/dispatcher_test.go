package dispatcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/chunkplan/internal/catalog"
	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/gate"
	"github.com/shaiso/chunkplan/internal/isolation"
	"github.com/shaiso/chunkplan/internal/layout"
	"github.com/shaiso/chunkplan/internal/store"
	"github.com/shaiso/chunkplan/internal/telemetry"
	"github.com/shaiso/chunkplan/internal/worker"
	"github.com/shaiso/chunkplan/internal/workspace"
)

// fakeRunner имитирует worker: пишет артефакт прямо в удалённое хранилище.
type fakeRunner struct {
	store  store.Store
	layout *layout.Layout
	delay  time.Duration
	fail   map[string]bool

	active atomic.Int64
	peak   atomic.Int64

	mu    sync.Mutex
	calls []string
	dirs  map[string]string
}

func (r *fakeRunner) Invocation(ws *workspace.Workspace) string {
	return "fake-worker --job job.json in " + ws.Dir()
}

func (r *fakeRunner) Run(ctx context.Context, desc domain.JobDescriptor, ws *workspace.Workspace, _ *slog.Logger) error {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}

	r.mu.Lock()
	r.calls = append(r.calls, desc.Job.SpeciesID)
	if r.dirs == nil {
		r.dirs = make(map[string]string)
	}
	for other, dir := range r.dirs {
		if dir == ws.Dir() {
			r.mu.Unlock()
			return fmt.Errorf("workspace of %s reused by %s", other, desc.Job.SpeciesID)
		}
	}
	r.dirs[desc.Job.SpeciesID] = ws.Dir()
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	if !desc.IsWorker() {
		return domain.ErrNotWorkerInvocation
	}
	if r.fail[desc.Job.SpeciesID] {
		return fmt.Errorf("%w: exit code 1", isolation.ErrWorkerFailed)
	}

	local := r.layout.LocalArtifact(desc.Job)
	content := fmt.Sprintf(`[{"species":%q,"at":%d}]`, desc.Job.SpeciesID, time.Now().UnixNano())
	if err := os.WriteFile(local, []byte(content), 0o644); err != nil {
		return err
	}
	if desc.Debug {
		return nil
	}
	if err := r.store.Delete(ctx, r.layout.RemoteArtifact(desc.Job)); err != nil {
		return err
	}
	return r.store.Upload(ctx, local, r.layout.RemoteArtifact(desc.Job))
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type env struct {
	db     domain.DBSpec
	layout *layout.Layout
	store  *store.FileStore
	reps   catalog.StaticSource
	runner *fakeRunner
}

func newEnv(t *testing.T, n int) *env {
	t.Helper()
	db := domain.DBSpec{Name: "testdb", LocalDir: t.TempDir(), RemoteRoot: t.TempDir()}
	l := layout.FromDB(db)
	s := store.NewFileStore()

	reps := catalog.StaticSource{}
	for i := 1; i <= n; i++ {
		reps[fmt.Sprint(i)] = fmt.Sprintf("G%d", i)
	}

	return &env{
		db:     db,
		layout: l,
		store:  s,
		reps:   reps,
		runner: &fakeRunner{store: s, layout: l},
	}
}

func (e *env) config(kind domain.ChunkKind) Config {
	return Config{
		Gate:      gate.New(2),
		Catalog:   catalog.New(e.reps, e.store, e.layout),
		Checker:   store.NewExistenceChecker(e.store, store.DefaultRetryPolicy(), nil),
		Runner:    e.runner,
		DB:        e.db,
		Kind:      kind,
		ChunkSize: 1000,
	}
}

func (e *env) remote(species string, kind domain.ChunkKind) string {
	return e.layout.RemoteArtifact(domain.ChunkJob{
		SpeciesID: species, GenomeID: e.reps[species], Kind: kind, ChunkSize: 1000,
	})
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 2)
	d := New(e.config(domain.ChunkKindRunSNPs))

	report, err := d.Run(ctx, []string{"1", "2"})
	require.NoError(t, err)
	require.Equal(t, 2, report.Count(domain.OutcomeSucceeded))

	before, err := os.ReadFile(e.remote("1", domain.ChunkKindRunSNPs))
	require.NoError(t, err)

	report, err = d.Run(ctx, []string{"1", "2"})
	require.NoError(t, err)
	require.Equal(t, 2, report.Count(domain.OutcomeSkipped))
	require.Equal(t, 2, e.runner.callCount())

	after, err := os.ReadFile(e.remote("1", domain.ChunkKindRunSNPs))
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRun_ForceRecomputes(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 1)

	_, err := New(e.config(domain.ChunkKindMergeSNPs)).Run(ctx, []string{"1"})
	require.NoError(t, err)
	before, err := os.ReadFile(e.remote("1", domain.ChunkKindMergeSNPs))
	require.NoError(t, err)

	cfg := e.config(domain.ChunkKindMergeSNPs)
	cfg.Force = true
	report, err := New(cfg).Run(ctx, []string{"1"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSucceeded, report.Results[0].Outcome)
	require.True(t, report.Results[0].Redesigned)

	after, err := os.ReadFile(e.remote("1", domain.ChunkKindMergeSNPs))
	require.NoError(t, err)
	require.NotEqual(t, before, after)
	require.Equal(t, 2, e.runner.callCount())
}

func TestRun_BoundedConcurrency(t *testing.T) {
	e := newEnv(t, 8)
	e.runner.delay = 20 * time.Millisecond

	cfg := e.config(domain.ChunkKindRunSNPs)
	cfg.Gate = gate.New(3)

	species := make([]string, 0, 8)
	for i := 1; i <= 8; i++ {
		species = append(species, fmt.Sprint(i))
	}

	report, err := New(cfg).Run(context.Background(), species)
	require.NoError(t, err)
	require.Equal(t, 8, report.Count(domain.OutcomeSucceeded))
	require.LessOrEqual(t, e.runner.peak.Load(), int64(3))
	require.LessOrEqual(t, cfg.Gate.Peak(), 3)
	require.Zero(t, cfg.Gate.Active())
}

func TestRun_IsolatedWorkspaces(t *testing.T) {
	e := newEnv(t, 4)
	e.runner.delay = 10 * time.Millisecond

	cfg := e.config(domain.ChunkKindGenes)
	cfg.Gate = gate.New(4)

	report, err := New(cfg).Run(context.Background(), []string{"1", "2", "3", "4"})
	require.NoError(t, err)
	require.Equal(t, 4, report.Count(domain.OutcomeSucceeded))

	seen := make(map[string]bool)
	for _, dir := range e.runner.dirs {
		require.False(t, seen[dir], "workspace %s shared between species", dir)
		seen[dir] = true
		require.NoDirExists(t, dir)
	}
}

func TestRun_SiblingFailureIsolated(t *testing.T) {
	e := newEnv(t, 3)
	e.runner.fail = map[string]bool{"2": true}

	report, err := New(e.config(domain.ChunkKindRunSNPs)).Run(context.Background(), []string{"1", "2", "3"})
	require.ErrorIs(t, err, ErrSpeciesFailed)
	require.ErrorIs(t, err, isolation.ErrWorkerFailed)

	require.Equal(t, 2, report.Count(domain.OutcomeSucceeded))
	failed := report.Failed()
	require.Len(t, failed, 1)
	require.Equal(t, "2", failed[0].SpeciesID)
	require.NotEmpty(t, failed[0].LogTail)
	require.Empty(t, failed[0].LogPath, "log is gone with the workspace")
	require.Contains(t, failed[0].ErrorText, "workspace log removed")
	require.NotContains(t, failed[0].ErrorText, e.runner.dirs["2"])

	require.FileExists(t, e.remote("1", domain.ChunkKindRunSNPs))
	require.FileExists(t, e.remote("3", domain.ChunkKindRunSNPs))
	require.NoFileExists(t, e.remote("2", domain.ChunkKindRunSNPs))

	// Рабочая директория убирается и после сбоя.
	require.NoDirExists(t, e.runner.dirs["2"])
}

func TestRun_UnknownSpecies(t *testing.T) {
	e := newEnv(t, 1)

	report, err := New(e.config(domain.ChunkKindRunSNPs)).Run(context.Background(), []string{"1", "999"})
	require.ErrorIs(t, err, catalog.ErrUnknownSpecies)
	require.Equal(t, domain.OutcomeSucceeded, report.Results[0].Outcome)
	require.Equal(t, domain.OutcomeFailed, report.Results[1].Outcome)
	require.Equal(t, 1, e.runner.callCount())
}

type failingChecker struct{ calls atomic.Int64 }

func (c *failingChecker) Exists(context.Context, string) (bool, error) {
	c.calls.Add(1)
	return false, fmt.Errorf("%w: exists: connection reset", store.ErrRetryExhausted)
}

func TestRun_ExistsExhaustion(t *testing.T) {
	e := newEnv(t, 2)
	cfg := e.config(domain.ChunkKindRunSNPs)
	checker := &failingChecker{}
	cfg.Checker = checker

	report, err := New(cfg).Run(context.Background(), []string{"1", "2"})
	require.ErrorIs(t, err, store.ErrRetryExhausted)
	require.Equal(t, 2, report.Count(domain.OutcomeFailed))
	require.Zero(t, e.runner.callCount())
	require.Equal(t, int64(2), checker.calls.Load())
}

func TestRun_DebugKeepsWorkspace(t *testing.T) {
	e := newEnv(t, 1)
	cfg := e.config(domain.ChunkKindRunSNPs)
	cfg.Debug = true

	report, err := New(cfg).Run(context.Background(), []string{"1"})
	require.NoError(t, err)

	res := report.Results[0]
	require.FileExists(t, res.LogPath)
	require.FileExists(t, e.layout.LocalArtifact(domain.ChunkJob{
		SpeciesID: "1", GenomeID: "G1", Kind: domain.ChunkKindRunSNPs, ChunkSize: 1000,
	}))
	require.NoFileExists(t, res.Location)
}

func TestRun_DebugFailureKeepsLog(t *testing.T) {
	e := newEnv(t, 1)
	e.runner.fail = map[string]bool{"1": true}
	cfg := e.config(domain.ChunkKindRunSNPs)
	cfg.Debug = true

	report, err := New(cfg).Run(context.Background(), []string{"1"})
	require.ErrorIs(t, err, isolation.ErrWorkerFailed)

	res := report.Results[0]
	require.FileExists(t, res.LogPath)
	require.Contains(t, res.ErrorText, "see "+res.LogPath)
}

func TestRun_NoSpecies(t *testing.T) {
	e := newEnv(t, 1)
	_, err := New(e.config(domain.ChunkKindRunSNPs)).Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoSpecies)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.ArtifactReady
}

func (n *recordingNotifier) PublishArtifactReady(_ context.Context, ev domain.ArtifactReady) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func TestRun_NotifiesAndCountsMetrics(t *testing.T) {
	e := newEnv(t, 2)
	notifier := &recordingNotifier{}
	reg := prometheus.NewRegistry()

	cfg := e.config(domain.ChunkKindRunSNPs)
	cfg.Notifier = notifier
	cfg.Metrics = telemetry.NewMetrics(reg)

	report, err := New(cfg).Run(context.Background(), []string{"1", "2"})
	require.NoError(t, err)

	require.Len(t, notifier.events, 2)
	for _, ev := range notifier.events {
		assert.Equal(t, report.RunID, ev.RunID)
		assert.Equal(t, e.remote(ev.SpeciesID, domain.ChunkKindRunSNPs), ev.Location)
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

// loggingRunner запоминает содержимое лога сразу после worker'а:
// после очистки рабочей директории его уже не прочитать.
type loggingRunner struct {
	isolation.Runner

	mu   sync.Mutex
	logs map[string]string
	dirs []string
}

func (r *loggingRunner) Run(ctx context.Context, desc domain.JobDescriptor, ws *workspace.Workspace, logger *slog.Logger) error {
	err := r.Runner.Run(ctx, desc, ws, logger)
	data, readErr := os.ReadFile(ws.LogPath())

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logs == nil {
		r.logs = make(map[string]string)
	}
	r.logs[desc.Job.SpeciesID] = string(data)
	r.dirs = append(r.dirs, ws.Dir())
	return errors.Join(err, readErr)
}

func writeLZ4(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestRun_TwoSpeciesGenesScenario(t *testing.T) {
	ctx := context.Background()
	db := domain.DBSpec{Name: "testdb", LocalDir: t.TempDir(), RemoteRoot: t.TempDir()}
	l := layout.FromDB(db)
	s := store.NewFileStore()
	reps := catalog.StaticSource{"S1": "G1", "S2": "G2"}

	for _, sp := range []string{"S1", "S2"} {
		writeLZ4(t, filepath.Join(db.RemoteRoot, layout.ClusterInfoPath(sp)),
			"centroid_99\tcentroid_95\n"+sp+"_g1\tx\n"+sp+"_g2\tx\n"+sp+"_g1\ty\n")
	}

	inner := isolation.NewInProcessRunner(func(ctx context.Context, desc domain.JobDescriptor, logger *slog.Logger) error {
		return worker.Main(ctx, desc, worker.Deps{Store: s, Source: reps, Logger: logger})
	})
	runner := &loggingRunner{Runner: inner}
	g := gate.New(1)

	d := New(Config{
		Gate:      g,
		Catalog:   catalog.New(reps, s, l),
		Checker:   store.NewExistenceChecker(s, store.DefaultRetryPolicy(), nil),
		Runner:    runner,
		DB:        db,
		Kind:      domain.ChunkKindGenes,
		ChunkSize: domain.DefaultChunkSize,
	})

	report, err := d.Run(ctx, []string{"S1", "S2"})
	require.NoError(t, err)
	require.Equal(t, 2, report.Count(domain.OutcomeSucceeded))

	// Два последовательных запуска worker'а.
	require.Equal(t, 1, g.Peak())
	require.Len(t, runner.dirs, 2)

	for _, sp := range []string{"S1", "S2"} {
		job := domain.ChunkJob{SpeciesID: sp, GenomeID: reps[sp], Kind: domain.ChunkKindGenes, ChunkSize: domain.DefaultChunkSize}
		require.FileExists(t, l.RemoteArtifact(job))

		log := runner.logs[sp]
		require.Contains(t, log, layout.StatusMessage(job, false)+"\n")
		require.Contains(t, log, "in-process worker --job job.json")
	}

	for _, dir := range runner.dirs {
		require.NoDirExists(t, dir)
	}
}
