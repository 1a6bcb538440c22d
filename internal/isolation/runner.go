package isolation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/workspace"
)

// DescriptorFile — имя файла дескриптора в рабочей директории.
const DescriptorFile = "job.json"

// ErrWorkerFailed — worker завершился с ошибкой.
var ErrWorkerFailed = errors.New("worker failed")

// Runner запускает worker для одного задания и ждёт его завершения.
type Runner interface {
	// Invocation возвращает команду запуска worker'а для записи в лог.
	Invocation(ws *workspace.Workspace) string

	// Run выполняет задание в рабочей директории ws.
	// Ошибка worker'а оборачивает ErrWorkerFailed.
	Run(ctx context.Context, desc domain.JobDescriptor, ws *workspace.Workspace, logger *slog.Logger) error
}
