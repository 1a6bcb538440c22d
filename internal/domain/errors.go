package domain

import "errors"

// Ошибки валидации задания.
var (
	// ErrUnknownChunkKind — тип чанков не поддерживается.
	ErrUnknownChunkKind = errors.New("unknown chunk kind")

	// ErrInvalidChunkSize — размер чанка должен быть положительным.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrEmptySpeciesID — у задания нет species_id.
	ErrEmptySpeciesID = errors.New("species id is empty")

	// ErrNotWorkerInvocation — точку входа worker'а вызвали не через диспетчер.
	ErrNotWorkerInvocation = errors.New("not a worker invocation: the worker entry point is reserved for the dispatcher")
)
