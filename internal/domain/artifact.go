package domain

import "encoding/json"

// Artifact — сериализуемый план чанков для одного ChunkJob.
//
// Содержимое дескрипторов принадлежит алгоритму разбиения;
// диспетчер и worker их не интерпретируют.
type Artifact []json.RawMessage

// Len возвращает количество чанков.
func (a Artifact) Len() int {
	return len(a)
}

// AppendChunk сериализует дескриптор чанка и добавляет его в план.
func (a *Artifact) AppendChunk(chunk any) error {
	raw, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	*a = append(*a, raw)
	return nil
}
