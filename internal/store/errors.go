package store

import "errors"

// Ошибки хранилища.
var (
	// ErrInvalidLocation — расположение не подходит для выбранного хранилища.
	ErrInvalidLocation = errors.New("invalid store location")

	// ErrNotFound — объект отсутствует.
	ErrNotFound = errors.New("object not found")

	// ErrRetryExhausted — все попытки проверки существования исчерпаны.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)
