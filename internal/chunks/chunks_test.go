package chunks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/chunkplan/internal/domain"
)

const fasta = ">c1 description\nACGTACGTAC\nACGTA\n>c2\nACG\n>c3\nACGTAC\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func lz4Bytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestReadContigs_Compression(t *testing.T) {
	expected := []Contig{{"c1", 15}, {"c2", 3}, {"c3", 6}}

	for name, path := range map[string]string{
		"plain": writeFile(t, "g.fna", []byte(fasta)),
		"lz4":   writeFile(t, "g.fna.lz4", lz4Bytes(t, fasta)),
		"gzip":  writeFile(t, "g.fna.gz", gzipBytes(t, fasta)),
	} {
		t.Run(name, func(t *testing.T) {
			contigs, err := ReadContigs(path)
			require.NoError(t, err)
			require.Equal(t, expected, contigs)
		})
	}
}

func TestReadContigs_Malformed(t *testing.T) {
	_, err := ReadContigs(writeFile(t, "bad.fna", []byte("ACGT\n>c1\nAC\n")))
	require.ErrorIs(t, err, ErrMalformedInput)

	_, err = ReadContigs(writeFile(t, "empty.fna", nil))
	require.ErrorIs(t, err, ErrEmptyInput)
}

func decode[T any](t *testing.T, art domain.Artifact) []T {
	t.Helper()
	out := make([]T, len(art))
	for i, raw := range art {
		require.NoError(t, json.Unmarshal(raw, &out[i]))
	}
	return out
}

func TestRunSNPsDesigner(t *testing.T) {
	path := writeFile(t, "g.fna", []byte(fasta))

	art, err := RunSNPsDesigner{}.Design(context.Background(), "S1", path, 6)
	require.NoError(t, err)

	chunks := decode[SitesChunk](t, art)
	require.Equal(t, []SitesChunk{
		{ChunkID: 0, ContigID: "c1", Start: 0, End: 6},
		{ChunkID: 1, ContigID: "c1", Start: 6, End: 12},
		{ChunkID: 2, ContigID: "c1", Start: 12, End: 15},
		{ChunkID: 3, ContigID: "c2", Start: 0, End: 3},
		{ChunkID: 4, ContigID: "c3", Start: 0, End: 6},
	}, chunks)
}

func TestMergeSNPsDesigner_PacksShortContigs(t *testing.T) {
	input := ">long\n" + strings.Repeat("A", 12) + "\n>s1\nAAA\n>s2\nAAAA\n>s3\nAAAAA\n"
	path := writeFile(t, "g.fna", []byte(input))

	art, err := MergeSNPsDesigner{}.Design(context.Background(), "S1", path, 10)
	require.NoError(t, err)

	chunks := decode[PackedChunk](t, art)
	require.Len(t, chunks, 4)

	require.Equal(t, 10, chunks[0].Sites)
	require.Equal(t, "long", chunks[0].Windows[0].ContigID)
	require.Equal(t, 2, chunks[1].Sites)

	// s1 + s2 = 7 сайтов; s3 уже не помещается.
	require.Equal(t, 7, chunks[2].Sites)
	require.Len(t, chunks[2].Windows, 2)
	require.Equal(t, 5, chunks[3].Sites)

	for i, c := range chunks {
		require.Equal(t, i, c.ChunkID)
	}
}

func TestGenesDesigner(t *testing.T) {
	info := "centroid_99\tcentroid_95\tcentroid_99_length\n" +
		"g1\tg1\t100\n" +
		"g2\tg1\t90\n" +
		"g1\tg1\t100\n" +
		"g3\tg3\t80\n"
	path := writeFile(t, "cluster_info.txt.lz4", lz4Bytes(t, info))

	art, err := GenesDesigner{}.Design(context.Background(), "S1", path, 2)
	require.NoError(t, err)

	chunks := decode[CentroidsChunk](t, art)
	require.Equal(t, []CentroidsChunk{
		{ChunkID: 0, Centroids: []string{"g1", "g2"}},
		{ChunkID: 1, Centroids: []string{"g3"}},
	}, chunks)
}

func TestGenesDesigner_MissingColumn(t *testing.T) {
	path := writeFile(t, "cluster_info.txt", []byte("gene_id\tlength\ng1\t10\n"))
	_, err := GenesDesigner{}.Design(context.Background(), "S1", path, 2)
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestDesigner_CancelledContext(t *testing.T) {
	path := writeFile(t, "g.fna", []byte(fasta))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunSNPsDesigner{}.Design(ctx, "S1", path, 6)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.Equal(t, []domain.ChunkKind{domain.ChunkKindGenes, domain.ChunkKindMergeSNPs, domain.ChunkKindRunSNPs}, r.Kinds())

	for _, k := range domain.ChunkKinds() {
		d, err := r.Get(k)
		require.NoError(t, err)
		require.Equal(t, k, d.Kind())
	}

	_, err := NewRegistry().Get(domain.ChunkKindGenes)
	require.ErrorIs(t, err, ErrDesignerNotFound)
}
