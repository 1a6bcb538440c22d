package chunks

import (
	"context"

	"github.com/shaiso/chunkplan/internal/domain"
)

// SitesChunk — окно сайтов одного контига [Start, End).
type SitesChunk struct {
	ChunkID  int    `json:"chunk_id"`
	ContigID string `json:"contig_id"`
	Start    int    `json:"contig_start"`
	End      int    `json:"contig_end"`
}

// PackedChunk — группа окон сайтов, обрабатываемых одним чанком.
type PackedChunk struct {
	ChunkID int          `json:"chunk_id"`
	Sites   int          `json:"sites"`
	Windows []SitesChunk `json:"windows"`
}

// RunSNPsDesigner режет каждый контиг на окна по chunkSize сайтов.
type RunSNPsDesigner struct{}

func (RunSNPsDesigner) Kind() domain.ChunkKind { return domain.ChunkKindRunSNPs }

func (RunSNPsDesigner) Design(ctx context.Context, _ string, inputPath string, chunkSize int) (domain.Artifact, error) {
	contigs, err := ReadContigs(inputPath)
	if err != nil {
		return nil, err
	}

	var art domain.Artifact
	id := 0
	for _, c := range contigs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, w := range splitContig(c, chunkSize) {
			w.ChunkID = id
			if err := art.AppendChunk(w); err != nil {
				return nil, err
			}
			id++
		}
	}
	return art, nil
}

// MergeSNPsDesigner режет длинные контиги и упаковывает короткие
// в общие чанки до chunkSize сайтов.
type MergeSNPsDesigner struct{}

func (MergeSNPsDesigner) Kind() domain.ChunkKind { return domain.ChunkKindMergeSNPs }

func (MergeSNPsDesigner) Design(ctx context.Context, _ string, inputPath string, chunkSize int) (domain.Artifact, error) {
	contigs, err := ReadContigs(inputPath)
	if err != nil {
		return nil, err
	}

	var (
		art     domain.Artifact
		current *PackedChunk
		id      int
	)

	flush := func() error {
		if current == nil || len(current.Windows) == 0 {
			return nil
		}
		err := art.AppendChunk(current)
		current = nil
		return err
	}

	for _, c := range contigs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if c.Length >= chunkSize {
			for _, w := range splitContig(c, chunkSize) {
				w.ChunkID = id
				if err := art.AppendChunk(PackedChunk{ChunkID: id, Sites: w.End - w.Start, Windows: []SitesChunk{w}}); err != nil {
					return nil, err
				}
				id++
			}
			continue
		}

		if current != nil && current.Sites+c.Length > chunkSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		if current == nil {
			current = &PackedChunk{ChunkID: id}
			id++
		}
		current.Windows = append(current.Windows, SitesChunk{ChunkID: current.ChunkID, ContigID: c.ID, Start: 0, End: c.Length})
		current.Sites += c.Length
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return art, nil
}

// splitContig режет контиг на окна по chunkSize сайтов.
// Контиг нулевой длины окон не даёт.
func splitContig(c Contig, chunkSize int) []SitesChunk {
	var windows []SitesChunk
	for start := 0; start < c.Length; start += chunkSize {
		windows = append(windows, SitesChunk{
			ContigID: c.ID,
			Start:    start,
			End:      min(start+chunkSize, c.Length),
		})
	}
	return windows
}
