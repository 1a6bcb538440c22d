package dispatcher

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/shaiso/chunkplan/internal/domain"
)

// Result — итог обработки одного вида.
type Result struct {
	SpeciesID  string         `json:"species_id"`
	GenomeID   string         `json:"genome_id,omitempty"`
	Outcome    domain.Outcome `json:"outcome"`
	Location   string         `json:"location,omitempty"`
	LogPath    string         `json:"log_path,omitempty"`
	Redesigned bool           `json:"redesigned,omitempty"`
	Duration   time.Duration  `json:"duration"`
	Err        error          `json:"-"`
	ErrorText  string         `json:"error,omitempty"`

	// LogTail — последние строки лога упавшего worker'а.
	LogTail []string `json:"log_tail,omitempty"`
}

// Report — итог запуска диспетчера. Строки идут в порядке видов на входе.
type Report struct {
	RunID   string   `json:"run_id"`
	Kind    string   `json:"chunk_kind"`
	Results []Result `json:"results"`
}

// Count возвращает число видов с данным исходом.
func (r *Report) Count(outcome domain.Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failed возвращает строки упавших видов.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Outcome == domain.OutcomeFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err объединяет ошибки всех упавших видов.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Failed() {
		err = multierr.Append(err, fmt.Errorf("%w: %s: %w", ErrSpeciesFailed, res.SpeciesID, res.Err))
	}
	return err
}
