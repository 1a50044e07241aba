package ingest

import (
	"strconv"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

// ChunkSegments splits every segment in order and numbers the chunks with one
// running index, so ids stay unique across the pages of a file.
func (s Splitter) ChunkSegments(filename, hash, source string, segments []commonModels.Segment) []commonModels.Chunk {
	var chunks []commonModels.Chunk
	index := 0
	for _, seg := range segments {
		for _, text := range s.Split(seg.Content) {
			chunks = append(chunks, commonModels.Chunk{
				Index: index,
				Text:  text,
				Metadata: commonModels.Metadata{
					commonModels.MetaFilename:   filename,
					commonModels.MetaFileHash:   hash,
					commonModels.MetaSource:     source,
					commonModels.MetaPage:       strconv.Itoa(seg.Number),
					commonModels.MetaChunkIndex: strconv.Itoa(index),
				},
			})
			index++
		}
	}
	return chunks
}
