package dispatcher

import "errors"

// Ошибки диспетчера.
var (
	// ErrNoSpecies — пустой набор видов.
	ErrNoSpecies = errors.New("no species to dispatch")

	// ErrSpeciesFailed — обработка вида завершилась ошибкой.
	ErrSpeciesFailed = errors.New("species failed")
)
