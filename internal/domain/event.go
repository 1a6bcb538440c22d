package domain

import "time"

// ArtifactReady — уведомление о том, что артефакт опубликован.
//
// Носит информационный характер: ни один компонент не планирует работу
// по этому событию.
type ArtifactReady struct {
	RunID      string    `json:"run_id"`
	SpeciesID  string    `json:"species_id"`
	GenomeID   string    `json:"genome_id"`
	Kind       ChunkKind `json:"chunk_kind"`
	ChunkSize  int       `json:"chunk_size"`
	Location   string    `json:"location"`
	Redesigned bool      `json:"redesigned"`
	At         time.Time `json:"at"`
}
