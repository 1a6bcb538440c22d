// Package catalog — каталог видов и репрезентативных геномов базы MIDAS.
//
// Каталог отвечает на два вопроса:
//   - какой геном репрезентативен для вида (species_id → genome_id)
//   - где лежит входной файл алгоритма разбиения для задания
//
// Источник соответствия видов и геномов подключаемый:
//   - TSVSource — таблица genomes.tsv из хранилища базы
//   - PGSource — таблица representatives в PostgreSQL
//   - StaticSource — фиксированное соответствие (тесты)
package catalog
