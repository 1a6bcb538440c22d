// Package dispatcher распределяет построение планов чанков по видам.
//
// # Обзор
//
// Для каждого вида из разрешённого набора Dispatcher в отдельной горутине:
//
//  1. Разрешает репрезентативный геном через каталог (неизвестный вид — ошибка)
//  2. Вычисляет RemoteLocation артефакта
//  3. Проверяет существование с повторами; существующий артефакт без force
//     означает пропуск, с force — пересчёт со статусом "Redesigning"
//  4. Занимает разрешение ConcurrencyGate (освобождается на любом пути выхода)
//  5. Готовит рабочую директорию и засевает лог статусом и командой запуска
//  6. Запускает worker в изоляции и ждёт завершения
//  7. Удаляет рабочую директорию, если не включён debug
//
// # Ошибки
//
// Сбой одного вида не отменяет остальные: каждый вид даёт строку Report,
// а Report.Err объединяет ошибки через multierr. Удаление удалённого
// артефакта происходит только внутри worker'а, никогда в диспетчере.
//
// # Параллелизм
//
// Пул горутин равен числу видов, единственный реальный ограничитель —
// Gate, переданный в Config. Два Dispatcher'а над пересекающимися
// наборами видов одновременно запускать не следует.
package dispatcher
