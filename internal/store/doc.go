// Package store — удалённое хранилище артефактов.
//
// Контракт минимален: Exists / Delete / Upload / Download.
// Delete идемпотентен: отсутствие объекта не является ошибкой.
//
// Реализации:
//   - S3Store — Amazon S3 (aws-sdk-go), расположения вида s3://bucket/key
//   - FileStore — директория на локальном диске (offline-базы, тесты);
//     загрузка идёт через временный файл и rename, поэтому частично
//     записанный объект никогда не виден
//
// ExistenceChecker оборачивает Exists ограниченным числом повторов.
// Это единственное место, где временные ошибки хранилища поглощаются;
// остальные вызовы не повторяются.
package store
