package domain

import "fmt"

// DefaultChunkSize — количество сайтов (или центроидов) в одном чанке по умолчанию.
const DefaultChunkSize = 100000

// ChunkKind — тип плана разбиения.
type ChunkKind string

const (
	// ChunkKindRunSNPs — чанки сайтов репрезентативного генома для run_snps.
	ChunkKindRunSNPs ChunkKind = "run_snps"

	// ChunkKindMergeSNPs — чанки сайтов репрезентативного генома для merge_snps.
	ChunkKindMergeSNPs ChunkKind = "merge_snps"

	// ChunkKindGenes — чанки центроидов пангенома.
	ChunkKindGenes ChunkKind = "genes"
)

// ChunkKinds возвращает все поддерживаемые типы в порядке, удобном для help-текста.
func ChunkKinds() []ChunkKind {
	return []ChunkKind{ChunkKindRunSNPs, ChunkKindMergeSNPs, ChunkKindGenes}
}

// ParseChunkKind парсит строку из CLI в ChunkKind.
func ParseChunkKind(s string) (ChunkKind, error) {
	switch k := ChunkKind(s); k {
	case ChunkKindRunSNPs, ChunkKindMergeSNPs, ChunkKindGenes:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChunkKind, s)
	}
}

// String возвращает строковое представление ChunkKind.
func (k ChunkKind) String() string {
	return string(k)
}

// NeedsGenome сообщает, работает ли алгоритм по репрезентативному геному.
// Для genes входом служит cluster_info пангенома.
func (k ChunkKind) NeedsGenome() bool {
	return k == ChunkKindRunSNPs || k == ChunkKindMergeSNPs
}

// ChunkJob — одна единица работы: план чанков для одного вида.
//
// Идентичность задания — кортеж (SpeciesID, GenomeID, Kind, ChunkSize);
// именно он определяет путь артефакта в удалённом хранилище.
// После создания не изменяется.
type ChunkJob struct {
	// SpeciesID — идентификатор вида в каталоге.
	SpeciesID string `json:"species_id"`

	// GenomeID — репрезентативный геном вида.
	GenomeID string `json:"genome_id"`

	// Kind — тип чанков.
	Kind ChunkKind `json:"chunk_kind"`

	// ChunkSize — размер чанка (сайты или центроиды).
	ChunkSize int `json:"chunk_size"`
}

// Validate проверяет, что задание можно выполнять.
func (j ChunkJob) Validate() error {
	if j.SpeciesID == "" {
		return ErrEmptySpeciesID
	}
	if _, err := ParseChunkKind(string(j.Kind)); err != nil {
		return err
	}
	if j.ChunkSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, j.ChunkSize)
	}
	return nil
}

// Key возвращает строковую форму идентичности задания (для логов и метрик).
func (j ChunkJob) Key() string {
	return fmt.Sprintf("%s/%s/%s/%d", j.Kind, j.SpeciesID, j.GenomeID, j.ChunkSize)
}
