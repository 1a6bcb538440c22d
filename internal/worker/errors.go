package worker

import "errors"

// Ошибки воркера.
var (
	// ErrGenomeMismatch — каталог worker'а вернул другой геном, чем диспетчер.
	ErrGenomeMismatch = errors.New("representative genome changed between dispatch and worker")

	// ErrSerializeArtifact — план не удалось сохранить локально.
	ErrSerializeArtifact = errors.New("serialize artifact")

	// ErrRelativeRemoteRoot — локальный удалённый корень задан относительным путём.
	ErrRelativeRemoteRoot = errors.New("remote root must be absolute in a worker descriptor")

	// ErrPublishArtifact — не удалось заменить удалённый артефакт.
	ErrPublishArtifact = errors.New("publish artifact")
)
