package layout

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/shaiso/chunkplan/internal/domain"
)

// Входные файлы каталога.
const (
	GenomesTable       = "genomes.tsv"
	genomeSuffix       = ".fna.lz4"
	clusterInfoSuffix  = "cluster_info.txt.lz4"
	cleanedImportsDir  = "cleaned_imports"
	pangenomesDir      = "pangenomes"
	chunksDir          = "chunks"
	chunkSizeDirPrefix = "chunksize."
)

// Layout — раскладка базы: удалённый корень и его локальное зеркало.
type Layout struct {
	remoteRoot string
	localDir   string
}

// New создаёт Layout. remoteRoot — s3://bucket/prefix или путь к директории.
func New(remoteRoot, localDir string) *Layout {
	return &Layout{
		remoteRoot: strings.TrimRight(remoteRoot, "/"),
		localDir:   localDir,
	}
}

// FromDB создаёт Layout по координатам базы из дескриптора.
func FromDB(db domain.DBSpec) *Layout {
	return New(db.RemoteRoot, db.LocalDir)
}

// RemoteRoot возвращает корень удалённого хранилища.
func (l *Layout) RemoteRoot() string {
	return l.remoteRoot
}

// LocalDir возвращает корень локального зеркала.
func (l *Layout) LocalDir() string {
	return l.localDir
}

// Remote превращает относительный путь в удалённое расположение.
func (l *Layout) Remote(rel string) string {
	return l.remoteRoot + "/" + rel
}

// Local превращает относительный путь в путь внутри локального зеркала.
func (l *Layout) Local(rel string) string {
	return filepath.Join(l.localDir, filepath.FromSlash(rel))
}

// ArtifactPath возвращает относительный путь артефакта задания.
func ArtifactPath(job domain.ChunkJob) string {
	size := fmt.Sprintf("%s%d", chunkSizeDirPrefix, job.ChunkSize)
	switch job.Kind {
	case domain.ChunkKindRunSNPs:
		return path.Join(chunksDir, "sites", "run", size, job.SpeciesID, job.GenomeID+".json")
	case domain.ChunkKindMergeSNPs:
		return path.Join(chunksDir, "sites", "merge", size, job.SpeciesID, job.GenomeID+".json")
	case domain.ChunkKindGenes:
		return path.Join(chunksDir, "genes", size, job.SpeciesID+".json")
	default:
		panic(fmt.Sprintf("layout: unknown chunk kind %q", job.Kind))
	}
}

// RemoteArtifact возвращает RemoteLocation задания.
func (l *Layout) RemoteArtifact(job domain.ChunkJob) string {
	return l.Remote(ArtifactPath(job))
}

// WorkspaceDir возвращает рабочую директорию worker'а для задания.
//
// Для genes артефакт лежит прямо в chunksize.{N}, поэтому рабочая директория
// получает собственный подкаталог вида: рабочие директории разных видов
// никогда не пересекаются.
func (l *Layout) WorkspaceDir(job domain.ChunkJob) string {
	dir := filepath.Dir(l.Local(ArtifactPath(job)))
	if job.Kind == domain.ChunkKindGenes {
		return filepath.Join(dir, job.SpeciesID)
	}
	return dir
}

// LocalArtifact возвращает путь локальной копии артефакта внутри рабочей директории.
func (l *Layout) LocalArtifact(job domain.ChunkJob) string {
	return filepath.Join(l.WorkspaceDir(job), path.Base(ArtifactPath(job)))
}

// RepresentativeGenomePath — относительный путь FASTA репрезентативного генома.
func RepresentativeGenomePath(speciesID, genomeID string) string {
	return path.Join(cleanedImportsDir, speciesID, genomeID, genomeID+genomeSuffix)
}

// ClusterInfoPath — относительный путь cluster_info пангенома вида.
func ClusterInfoPath(speciesID string) string {
	return path.Join(pangenomesDir, speciesID, clusterInfoSuffix)
}

// InputPath возвращает относительный путь входного файла алгоритма для задания.
func InputPath(job domain.ChunkJob) string {
	if job.Kind.NeedsGenome() {
		return RepresentativeGenomePath(job.SpeciesID, job.GenomeID)
	}
	return ClusterInfoPath(job.SpeciesID)
}
