package chunks

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// openInput открывает входной файл, распаковывая .gz и .lz4 по расширению.
func openInput(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gr, Closer: fh}, nil
	case strings.HasSuffix(path, ".lz4"):
		return struct {
			io.Reader
			io.Closer
		}{Reader: lz4.NewReader(fh), Closer: fh}, nil
	default:
		return fh, nil
	}
}

// Contig — контиг генома и его длина.
type Contig struct {
	ID     string
	Length int
}

// ReadContigs читает FASTA и возвращает контиги в порядке следования.
// Идентификатор — первое слово заголовка.
func ReadContigs(path string) ([]Contig, error) {
	rc, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var contigs []Contig
	r := bufio.NewReaderSize(rc, 1<<20)
	for {
		line, err := r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")

		if len(line) > 0 {
			if line[0] == '>' {
				fields := strings.Fields(string(line[1:]))
				if len(fields) == 0 {
					return nil, fmt.Errorf("%w: empty FASTA header in %s", ErrMalformedInput, path)
				}
				contigs = append(contigs, Contig{ID: fields[0]})
			} else {
				if len(contigs) == 0 {
					return nil, fmt.Errorf("%w: sequence before first header in %s", ErrMalformedInput, path)
				}
				contigs[len(contigs)-1].Length += len(bytes.TrimSpace(line))
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if len(contigs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}
	return contigs, nil
}

// centroidColumn — колонка cluster_info с центроидом 99% кластера.
const centroidColumn = "centroid_99"

// ReadCentroids читает cluster_info пангенома и возвращает уникальные
// центроиды в порядке первого появления.
func ReadCentroids(path string) ([]string, error) {
	rc, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
	col := -1
	for i, h := range header {
		if h == centroidColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %s has no %s column", ErrMalformedInput, path, centroidColumn)
	}

	seen := make(map[string]struct{})
	var centroids []string
	for sc.Scan() {
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if col >= len(fields) {
			return nil, fmt.Errorf("%w: short line in %s", ErrMalformedInput, path)
		}
		c := fields[col]
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		centroids = append(centroids, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(centroids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}
	return centroids, nil
}
