// Package workspace управляет рабочей директорией одного запуска worker'а.
//
// Рабочая директория и лог принадлежат ровно одному ChunkJob и живут
// не дольше его диспетчеризации. Удаление — best-effort: ошибки логируются
// и никогда не поднимаются выше. В debug-режиме ничего не удаляется.
package workspace

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrNotPrepared — операция над неподготовленной рабочей директорией.
var ErrNotPrepared = errors.New("workspace is not prepared")

// Workspace — рабочая директория и лог worker'а.
type Workspace struct {
	dir      string
	logPath  string
	debug    bool
	prepared bool
	removed  bool
}

// Prepare создаёт свежую рабочую директорию dir с логом logName.
//
// Существующая директория удаляется, если не включён debug: в debug-режиме
// файлы прошлого запуска сохраняются для осмотра.
func Prepare(dir, logName string, debug bool) (*Workspace, error) {
	if !debug {
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("remove stale workspace %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}

	return &Workspace{
		dir:      dir,
		logPath:  filepath.Join(dir, logName),
		debug:    debug,
		prepared: true,
	}, nil
}

// Dir возвращает путь рабочей директории.
func (w *Workspace) Dir() string {
	return w.dir
}

// LogPath возвращает путь лог-файла.
func (w *Workspace) LogPath() string {
	return w.logPath
}

// Path возвращает путь файла внутри рабочей директории.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// SeedLog создаёт лог и записывает в него статусное сообщение
// и точную команду запуска worker'а.
func (w *Workspace) SeedLog(status, invocation string) error {
	if !w.prepared {
		return ErrNotPrepared
	}
	content := status + "\n" + invocation + "\n"
	if err := os.WriteFile(w.logPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("seed log: %w", err)
	}
	return nil
}

// OpenLog открывает лог на дозапись.
func (w *Workspace) OpenLog() (*os.File, error) {
	if !w.prepared {
		return nil, ErrNotPrepared
	}
	f, err := os.OpenFile(w.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return f, nil
}

// Tail возвращает последние n строк лога.
func (w *Workspace) Tail(n int) ([]string, error) {
	if !w.prepared {
		return nil, ErrNotPrepared
	}
	f, err := os.Open(w.logPath)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return lines, fmt.Errorf("read log: %w", err)
	}
	return lines, nil
}

// Cleanup удаляет рабочую директорию вместе с логом и локальным артефактом.
// В debug-режиме ничего не делает. Ошибки только логируются.
func (w *Workspace) Cleanup(logger *slog.Logger) {
	if w.debug || !w.prepared {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.RemoveAll(w.dir); err != nil {
		logger.Warn("failed to remove workspace", "dir", w.dir, "error", err)
		return
	}
	w.prepared = false
	w.removed = true
}

// Removed сообщает, что Cleanup удалил директорию вместе с логом.
func (w *Workspace) Removed() bool {
	return w.removed
}
