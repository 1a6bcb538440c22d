// Package telemetry обеспечивает наблюдаемость chunkplan.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики диспетчера
//
// Диспетчер и worker используют единый формат логирования.
// Worker пишет в stdout, который диспетчер перенаправляет в лог рабочей директории.
package telemetry
