package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// Mode — вариант дескриптора запуска.
type Mode string

const (
	// ModeMaster — запуск диспетчера над набором видов.
	ModeMaster Mode = "master"

	// ModeWorker — запуск worker'а ровно для одного ChunkJob.
	ModeWorker Mode = "worker"
)

// DBSpec — координаты базы MIDAS, общие для диспетчера и worker'а.
type DBSpec struct {
	// Name — имя базы (uhgg, gtdb, testdb).
	Name string `json:"name"`

	// LocalDir — локальная директория, зеркалирующая удалённый корень.
	LocalDir string `json:"local_dir"`

	// RemoteRoot — корень удалённого хранилища (s3://bucket/prefix или путь).
	RemoteRoot string `json:"remote_root"`
}

// JobDescriptor — явный дескриптор запуска: {MasterRun, WorkerRun(ChunkJob)}.
//
// Worker получает дескриптор через аргументы своего изолированного запуска
// (файл job.json в рабочей директории), а не через общее состояние.
type JobDescriptor struct {
	Mode  Mode     `json:"mode"`
	Job   ChunkJob `json:"job"`
	DB    DBSpec   `json:"db"`
	Debug bool     `json:"debug,omitempty"`
}

// NewWorkerDescriptor создаёт дескриптор WorkerRun для задания.
func NewWorkerDescriptor(job ChunkJob, db DBSpec, debug bool) JobDescriptor {
	return JobDescriptor{
		Mode:  ModeWorker,
		Job:   job,
		DB:    db,
		Debug: debug,
	}
}

// IsWorker возвращает true для варианта WorkerRun.
func (d JobDescriptor) IsWorker() bool {
	return d.Mode == ModeWorker
}

// WriteFile сохраняет дескриптор в JSON.
func (d JobDescriptor) WriteFile(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}

// ReadDescriptor читает дескриптор из JSON-файла.
func ReadDescriptor(path string) (JobDescriptor, error) {
	var d JobDescriptor
	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read descriptor: %w", err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	return d, nil
}
