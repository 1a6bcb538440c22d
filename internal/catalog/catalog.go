package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/layout"
	"github.com/shaiso/chunkplan/internal/store"
)

// RepresentativeSource загружает соответствие species_id → genome_id.
type RepresentativeSource interface {
	Representatives(ctx context.Context) (map[string]string, error)
}

// StaticSource — фиксированное соответствие видов и геномов.
type StaticSource map[string]string

// Representatives возвращает копию соответствия.
func (s StaticSource) Representatives(context.Context) (map[string]string, error) {
	reps := make(map[string]string, len(s))
	for k, v := range s {
		reps[k] = v
	}
	return reps, nil
}

// Catalog — каталог видов базы.
//
// Соответствие видов загружается один раз и кэшируется.
// Неудачная загрузка не кэшируется.
type Catalog struct {
	source RepresentativeSource
	store  store.Store
	layout *layout.Layout

	mu   sync.Mutex
	reps map[string]string
}

// New создаёт Catalog.
func New(source RepresentativeSource, s store.Store, l *layout.Layout) *Catalog {
	return &Catalog{
		source: source,
		store:  s,
		layout: l,
	}
}

// Representatives возвращает соответствие species_id → genome_id.
func (c *Catalog) Representatives(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reps != nil {
		return c.reps, nil
	}

	reps, err := c.source.Representatives(ctx)
	if err != nil {
		return nil, fmt.Errorf("load representatives: %w", err)
	}
	c.reps = reps
	return reps, nil
}

// GenomeFor возвращает репрезентативный геном вида.
func (c *Catalog) GenomeFor(ctx context.Context, speciesID string) (string, error) {
	reps, err := c.Representatives(ctx)
	if err != nil {
		return "", err
	}
	genomeID, ok := reps[speciesID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSpecies, speciesID)
	}
	return genomeID, nil
}

// SpeciesIDs возвращает отсортированный список всех видов.
func (c *Catalog) SpeciesIDs(ctx context.Context) ([]string, error) {
	reps, err := c.Representatives(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reps))
	for id := range reps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// FetchInputFile возвращает локальный путь входного файла алгоритма для задания.
//
// run_snps и merge_snps читают репрезентативный геном, genes — cluster_info
// пангенома. Если файла нет в локальном зеркале, он скачивается из хранилища.
func (c *Catalog) FetchInputFile(ctx context.Context, job domain.ChunkJob) (string, error) {
	rel := layout.InputPath(job)
	local := c.layout.Local(rel)

	if _, err := os.Stat(local); err == nil {
		return local, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := c.store.Download(ctx, c.layout.Remote(rel), local); err != nil {
		return "", fmt.Errorf("fetch %s for species %s: %w", rel, job.SpeciesID, err)
	}
	return local, nil
}
