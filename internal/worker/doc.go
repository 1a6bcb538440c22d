// Package worker строит план чанков ровно для одного ChunkJob.
//
// # Обзор
//
// Worker запускается диспетчером в изолированном контексте выполнения
// (отдельный процесс chunkplan-worker со своей рабочей директорией и логом).
// Задание приходит через дескриптор запуска (domain.JobDescriptor), а не
// через общее состояние: worker не доверяет ничему, кроме идентичности задания.
//
// # Шаги
//
//  0. Проверка, что это вызов worker'а (ModeWorker); иначе ErrNotWorkerInvocation
//     до любого обращения к каталогу
//  1. Повторное разрешение genome_id по каталогу
//  2. Загрузка входного файла алгоритма (геном или cluster_info)
//  3. Построение плана через chunks.Registry
//  4. Сериализация плана в локальный артефакт внутри рабочей директории
//  5. Без debug: удаление удалённой копии, затем загрузка нового артефакта
//
// # Атомарность
//
// Удаление всегда предшествует загрузке. Если worker падает между ними,
// удалённого артефакта просто нет — частично записанный артефакт не наблюдаем.
// Повторная проверка существования увидит отсутствие и пересчитает план.
//
// # Запуск
//
//	err := worker.Main(ctx, desc, worker.Deps{Logger: logger})
//
// Main собирает каталог и хранилище по DBSpec из дескриптора. Тесты
// и InProcessRunner подменяют зависимости через Deps.
package worker
