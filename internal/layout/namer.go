package layout

import (
	"fmt"
	"strings"

	"github.com/shaiso/chunkplan/internal/domain"
)

// Имена артефактов по типу чанков.
const (
	ArtifactRunSites   = "chunks_sites_run"
	ArtifactMergeSites = "chunks_sites_merge"
	ArtifactCentroids  = "chunks_centroids"
)

// NameFor возвращает имя артефакта и шаблон статусного сообщения.
//
// Шаблон содержит плейсхолдеры {species} и {genome}.
// Тип чанков валидируется на входе CLI; неизвестный тип здесь — ошибка программиста.
func NameFor(kind domain.ChunkKind) (artifactName, statusTemplate string) {
	switch kind {
	case domain.ChunkKindRunSNPs:
		return ArtifactRunSites, "Designing chunks of sites for representative genome {genome} from species {species} for RUN snps."
	case domain.ChunkKindMergeSNPs:
		return ArtifactMergeSites, "Designing chunks of sites for representative genome {genome} from species {species} for MERGE snps."
	case domain.ChunkKindGenes:
		return ArtifactCentroids, "Designing chunks of centroids for species {species}."
	default:
		panic(fmt.Sprintf("layout: unknown chunk kind %q", kind))
	}
}

// StatusMessage рендерит статусное сообщение для задания.
// redesign=true даёт вариант "Redesigning" для пересчёта при --force.
func StatusMessage(job domain.ChunkJob, redesign bool) string {
	_, tmpl := NameFor(job.Kind)
	msg := strings.NewReplacer("{species}", job.SpeciesID, "{genome}", job.GenomeID).Replace(tmpl)
	if redesign {
		msg = strings.Replace(msg, "Designing", "Redesigning", 1)
	}
	return msg
}

// LogName возвращает имя лог-файла worker'а для типа чанков.
func LogName(kind domain.ChunkKind) string {
	name, _ := NameFor(kind)
	return name + ".log"
}
