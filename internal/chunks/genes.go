package chunks

import (
	"context"

	"github.com/shaiso/chunkplan/internal/domain"
)

// CentroidsChunk — группа центроидов пангенома.
type CentroidsChunk struct {
	ChunkID   int      `json:"chunk_id"`
	Centroids []string `json:"centroids"`
}

// GenesDesigner группирует центроиды centroid_99 по chunkSize штук.
type GenesDesigner struct{}

func (GenesDesigner) Kind() domain.ChunkKind { return domain.ChunkKindGenes }

func (GenesDesigner) Design(ctx context.Context, _ string, inputPath string, chunkSize int) (domain.Artifact, error) {
	centroids, err := ReadCentroids(inputPath)
	if err != nil {
		return nil, err
	}

	var art domain.Artifact
	for id, start := 0, 0; start < len(centroids); id, start = id+1, start+chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+chunkSize, len(centroids))
		if err := art.AppendChunk(CentroidsChunk{ChunkID: id, Centroids: centroids[start:end]}); err != nil {
			return nil, err
		}
	}
	return art, nil
}
