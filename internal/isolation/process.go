package isolation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/workspace"
)

// DefaultWorkerBinary — бинарь worker'а, если путь не задан.
const DefaultWorkerBinary = "chunkplan-worker"

// ProcessRunner запускает worker отдельным процессом.
type ProcessRunner struct {
	binary string
	env    []string
	grace  time.Duration
}

// ProcessConfig — конфигурация ProcessRunner.
type ProcessConfig struct {
	// Binary — путь к chunkplan-worker (по умолчанию ищется в PATH).
	Binary string

	// Env — дополнительные переменные окружения worker'а.
	Env []string

	// Grace — пауза между SIGTERM и SIGKILL при отмене (по умолчанию 2s).
	Grace time.Duration
}

// NewProcessRunner создаёт ProcessRunner.
//
// Относительный путь к бинарю фиксируется от текущей директории: worker
// стартует в своей рабочей директории, и exec искал бы его там.
func NewProcessRunner(cfg ProcessConfig) *ProcessRunner {
	if cfg.Binary == "" {
		cfg.Binary = DefaultWorkerBinary
	}
	if strings.ContainsRune(cfg.Binary, filepath.Separator) && !filepath.IsAbs(cfg.Binary) {
		if abs, err := filepath.Abs(cfg.Binary); err == nil {
			cfg.Binary = abs
		}
	}
	if cfg.Grace == 0 {
		cfg.Grace = 2 * time.Second
	}
	return &ProcessRunner{
		binary: cfg.Binary,
		env:    cfg.Env,
		grace:  cfg.Grace,
	}
}

func (r *ProcessRunner) args() []string {
	return []string{"--job", DescriptorFile}
}

// Invocation возвращает команду запуска worker'а.
func (r *ProcessRunner) Invocation(ws *workspace.Workspace) string {
	return fmt.Sprintf("cd %s && %s %s >> %s 2>&1",
		ws.Dir(), r.binary, strings.Join(r.args(), " "), ws.LogPath())
}

// Run запускает worker и ждёт завершения.
func (r *ProcessRunner) Run(ctx context.Context, desc domain.JobDescriptor, ws *workspace.Workspace, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := desc.WriteFile(ws.Path(DescriptorFile)); err != nil {
		return err
	}

	logFile, err := ws.OpenLog()
	if err != nil {
		return err
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, r.binary, r.args()...)
	cmd.Dir = ws.Dir()
	cmd.Env = append(os.Environ(), r.env...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	configureWorkerProcess(cmd)
	cmd.Cancel = func() error {
		terminateWorkerProcess(cmd, r.grace)
		return nil
	}
	cmd.WaitDelay = r.grace + time.Second

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %w", ErrWorkerFailed, r.binary, err)
	}
	logger.Debug("worker process started",
		"pid", cmd.Process.Pid,
		"dir", ws.Dir(),
	)

	// Worker, успевший завершиться с кодом 0, уже опубликовал артефакт:
	// отмена после этого не делает запуск неудачным.
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrWorkerFailed, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: exit code %d", ErrWorkerFailed, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %w", ErrWorkerFailed, err)
	}

	logger.Debug("worker process finished", "duration", time.Since(started))
	return nil
}
