// Package gate ограничивает число одновременно работающих worker'ов.
//
// Gate — счётный пул разрешений, размер которого по умолчанию равен
// числу физических ядер. Передаётся диспетчеру явно через конфигурацию:
// время жизни и размер пула задаются вызывающим кодом, а не глобальным состоянием.
package gate

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/semaphore"
)

// Gate — счётный пул разрешений на запуск worker'ов.
//
// Порядок выдачи разрешений — тот, что даёт semaphore.Weighted (FIFO),
// но контрактом не гарантируется.
type Gate struct {
	sem    *semaphore.Weighted
	size   int64
	active atomic.Int64
	peak   atomic.Int64
}

// New создаёт Gate на size разрешений. size <= 0 заменяется на DefaultSize().
func New(size int) *Gate {
	if size <= 0 {
		size = DefaultSize()
	}
	return &Gate{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// DefaultSize возвращает число физических ядер (или логических, если cpuid не знает).
func DefaultSize() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Acquire блокирует до получения разрешения.
// Ошибка возможна только при отмене ctx.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	n := g.active.Add(1)
	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return nil
}

// Release возвращает разрешение.
func (g *Gate) Release() {
	g.active.Add(-1)
	g.sem.Release(1)
}

// Do выполняет fn, удерживая разрешение. Разрешение возвращается
// на любом пути выхода, включая панику в fn.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn()
}

// Size возвращает размер пула.
func (g *Gate) Size() int {
	return int(g.size)
}

// Active возвращает число выданных сейчас разрешений.
func (g *Gate) Active() int {
	return int(g.active.Load())
}

// Peak возвращает максимальное число одновременно выданных разрешений.
func (g *Gate) Peak() int {
	return int(g.peak.Load())
}
