// Package layout отвечает за именование артефактов и раскладку файлов базы MIDAS.
//
// Все пути — чистые функции от идентичности задания (ChunkJob):
// удалённое расположение артефакта определяется только кортежем
// (species_id, genome_id, chunk_kind, chunk_size). Отдельного манифеста
// или lock-записи нет: существование файла — единственный признак кэша.
//
// Относительные пути одинаковы для удалённого корня и локального зеркала:
//
//	chunks/sites/run/chunksize.{N}/{species}/{genome}.json
//	chunks/sites/merge/chunksize.{N}/{species}/{genome}.json
//	chunks/genes/chunksize.{N}/{species}.json
//	cleaned_imports/{species}/{genome}/{genome}.fna.lz4
//	pangenomes/{species}/cluster_info.txt.lz4
//	genomes.tsv
package layout
