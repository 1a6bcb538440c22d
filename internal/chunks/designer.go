package chunks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/chunkplan/internal/domain"
)

// Ошибки алгоритмов разбиения.
var (
	// ErrDesignerNotFound — для типа чанков не зарегистрирован алгоритм.
	ErrDesignerNotFound = errors.New("chunk designer not found")

	// ErrEmptyInput — во входном файле нет ни одной записи.
	ErrEmptyInput = errors.New("input has no records")

	// ErrMalformedInput — входной файл не разбирается.
	ErrMalformedInput = errors.New("malformed input")
)

// Designer — алгоритм разбиения для одного типа чанков.
type Designer interface {
	// Kind возвращает тип чанков, который строит алгоритм.
	Kind() domain.ChunkKind

	// Design строит план чанков для вида.
	Design(ctx context.Context, speciesID, inputPath string, chunkSize int) (domain.Artifact, error)
}

// Registry — реестр алгоритмов по типу чанков. Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	designers map[domain.ChunkKind]Designer
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{designers: make(map[domain.ChunkKind]Designer)}
}

// DefaultRegistry создаёт реестр со всеми стандартными алгоритмами.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(RunSNPsDesigner{})
	r.Register(MergeSNPsDesigner{})
	r.Register(GenesDesigner{})
	return r
}

// Register регистрирует алгоритм. Существующий алгоритм того же типа перезаписывается.
func (r *Registry) Register(d Designer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.designers[d.Kind()] = d
}

// Get возвращает алгоритм для типа чанков.
func (r *Registry) Get(kind domain.ChunkKind) (Designer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.designers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDesignerNotFound, kind)
	}
	return d, nil
}

// Kinds возвращает зарегистрированные типы.
func (r *Registry) Kinds() []domain.ChunkKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.ChunkKind, 0, len(r.designers))
	for k := range r.designers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
