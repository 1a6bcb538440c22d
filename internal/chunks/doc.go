// Package chunks содержит алгоритмы разбиения на чанки.
//
// Алгоритм получает вид, путь к входному файлу и размер чанка
// и возвращает domain.Artifact — список непрозрачных для диспетчера
// дескрипторов чанков.
//
//   - run_snps: каждый контиг репрезентативного генома режется на окна
//     по chunkSize сайтов
//   - merge_snps: длинные контиги режутся так же, короткие упаковываются
//     вместе, пока чанк не наберёт chunkSize сайтов
//   - genes: уникальные центроиды centroid_99 из cluster_info группируются
//     по chunkSize штук
//
// Входные файлы могут быть несжатыми, .gz или .lz4.
package chunks
