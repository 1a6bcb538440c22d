// Package cli реализует команды chunkplan.
//
// # Команды
//
//   - compute-chunks — диспетчеризация построения планов чанков по видам
//   - species        — разрешённый набор видов и их репрезентативные геномы
//   - watch          — поток уведомлений artifact.ready из RabbitMQ
//
// Каждая команда создаётся фабричной функцией (NewComputeChunksCmd и т.д.),
// принимающей appFn и outputFn — замыкания для ленивого создания App
// и Output после парсинга PersistentFlags.
//
// # App
//
// App держит настройки (internal/config) и лениво открывает зависимости:
// хранилище, каталог, соединение с RabbitMQ, метрики. Флаги команды
// накладываются на App.Config до первого обращения к зависимостям.
//
// # Output
//
// Таблицы (text/tabwriter) по умолчанию или JSON с флагом --json.
// Данные идут в stdout, сообщения — в stderr:
//
//	chunkplan compute-chunks --species all --json | jq '.results[] | select(.outcome=="FAILED")'
package cli
