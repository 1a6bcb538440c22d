// Package isolation запускает worker в изолированном контексте выполнения.
//
// Каждый запуск получает собственную рабочую директорию и лог
// (workspace.Workspace). Задание передаётся явным дескриптором
// (domain.JobDescriptor), worker не видит состояния диспетчера.
//
// Реализации:
//
//   - ProcessRunner — отдельный процесс chunkplan-worker в своей группе
//     процессов; отмена контекста убивает всю группу
//   - InProcessRunner — вызов функции worker'а в текущем процессе с логом
//     в файле рабочей директории (локальная разработка и тесты)
package isolation
