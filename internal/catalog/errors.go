package catalog

import "errors"

// Ошибки каталога.
var (
	// ErrUnknownSpecies — вида нет в каталоге. Это несоответствие вызывающего
	// кода и каталога, а не временная ошибка: не повторяется.
	ErrUnknownSpecies = errors.New("species is not in the database")

	// ErrMalformedTable — таблица каталога не разбирается.
	ErrMalformedTable = errors.New("malformed catalog table")
)
