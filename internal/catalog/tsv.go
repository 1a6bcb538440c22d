package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shaiso/chunkplan/internal/layout"
	"github.com/shaiso/chunkplan/internal/store"
)

// Колонки genomes.tsv.
const (
	colGenome         = "genome"
	colSpecies        = "species"
	colRepresentative = "representative"
)

// TSVSource читает соответствие видов из genomes.tsv базы.
type TSVSource struct {
	store  store.Store
	layout *layout.Layout
}

// NewTSVSource создаёт TSVSource.
func NewTSVSource(s store.Store, l *layout.Layout) *TSVSource {
	return &TSVSource{store: s, layout: l}
}

// Representatives загружает genomes.tsv (скачивая его в локальное зеркало
// при необходимости) и возвращает species → representative.
func (t *TSVSource) Representatives(ctx context.Context) (map[string]string, error) {
	local := t.layout.Local(layout.GenomesTable)

	if _, err := os.Stat(local); errors.Is(err, os.ErrNotExist) {
		if err := t.store.Download(ctx, t.layout.Remote(layout.GenomesTable), local); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", layout.GenomesTable, err)
		}
	}

	f, err := os.Open(local)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseGenomesTable(f)
}

// ParseGenomesTable разбирает genomes.tsv.
//
// Обязательные колонки: genome, species, representative. Каждый вид должен
// иметь ровно один репрезентативный геном.
func ParseGenomesTable(r io.Reader) (map[string]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty table", ErrMalformedTable)
	}

	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, col := range []string{colGenome, colSpecies, colRepresentative} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedTable, col)
		}
	}

	reps := make(map[string]string)
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d", ErrMalformedTable, line, len(fields), len(header))
		}

		species := fields[idx[colSpecies]]
		rep := fields[idx[colRepresentative]]
		if prev, ok := reps[species]; ok && prev != rep {
			return nil, fmt.Errorf("%w: species %s has representatives %s and %s", ErrMalformedTable, species, prev, rep)
		}
		reps[species] = rep
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return reps, nil
}
