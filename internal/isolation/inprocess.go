package isolation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/telemetry"
	"github.com/shaiso/chunkplan/internal/workspace"
)

// EntryFunc — точка входа worker'а (обычно worker.Main с замкнутыми Deps).
type EntryFunc func(ctx context.Context, desc domain.JobDescriptor, logger *slog.Logger) error

// InProcessRunner вызывает worker в текущем процессе.
//
// Лог worker'а пишется в файл рабочей директории, паника worker'а
// превращается в ErrWorkerFailed и не роняет диспетчер.
type InProcessRunner struct {
	entry EntryFunc
}

// NewInProcessRunner создаёт InProcessRunner.
func NewInProcessRunner(entry EntryFunc) *InProcessRunner {
	return &InProcessRunner{entry: entry}
}

// Invocation возвращает описание запуска для лога.
func (r *InProcessRunner) Invocation(ws *workspace.Workspace) string {
	return fmt.Sprintf("in-process worker --job %s (dir %s)", DescriptorFile, ws.Dir())
}

// Run выполняет entry с логом в рабочей директории.
func (r *InProcessRunner) Run(ctx context.Context, desc domain.JobDescriptor, ws *workspace.Workspace, _ *slog.Logger) (err error) {
	if err := desc.WriteFile(ws.Path(DescriptorFile)); err != nil {
		return err
	}

	logFile, err := ws.OpenLog()
	if err != nil {
		return err
	}
	defer logFile.Close()

	workerLogger := telemetry.NewLogger(logFile)

	defer func() {
		if p := recover(); p != nil {
			workerLogger.Error("worker panicked", "panic", p)
			err = fmt.Errorf("%w: panic: %v", ErrWorkerFailed, p)
		}
	}()

	if runErr := r.entry(ctx, desc, workerLogger); runErr != nil {
		workerLogger.Error("worker failed", "error", runErr)
		return fmt.Errorf("%w: %w", ErrWorkerFailed, runErr)
	}
	return nil
}
