package commonModels

import (
	"fmt"
	"path/filepath"
	"strings"
)

type DocKind string

const (
	KindText        DocKind = "TEXT"
	KindPDF         DocKind = "PDF"
	KindWord        DocKind = "WORD"
	KindUnsupported DocKind = "UNSUPPORTED"
)

// KindFromPath picks the loader variant from the lower-cased extension.
func KindFromPath(path string) DocKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return KindText
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindWord
	default:
		return KindUnsupported
	}
}

// SourceDocument is a file discovered during a sync pass. It is never persisted.
type SourceDocument struct {
	Path string
	// Name is the base name without extension and keys every chunk of the file.
	Name string
	Ext  string
	Kind DocKind
}

func NewSourceDocument(path string) SourceDocument {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return SourceDocument{
		Path: path,
		Name: strings.TrimSuffix(base, ext),
		Ext:  strings.ToLower(ext),
		Kind: KindFromPath(path),
	}
}

type Segment struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

const (
	MetaFilename   = "filename"
	MetaFileHash   = "file_hash"
	MetaSource     = "source"
	MetaPage       = "page"
	MetaChunkIndex = "chunk_index"
)

type Metadata map[string]string

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Matches reports whether every filter pair is present in m with an equal value.
func (m Metadata) Matches(filter Metadata) bool {
	for k, v := range filter {
		if got, ok := m[k]; !ok || got != v {
			return false
		}
	}
	return true
}

type Chunk struct {
	Index    int      `json:"index"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

func ChunkID(filename string, index int) string {
	return fmt.Sprintf("%s_%d", filename, index)
}

func (c Chunk) ID() string {
	return ChunkID(c.Metadata[MetaFilename], c.Index)
}

// Record is what a collection store persists for one chunk.
type Record struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Metadata  Metadata  `json:"metadata"`
	Embedding []float32 `json:"-"`
}

// Match is a similarity hit; a higher score is more relevant.
type Match struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata,omitempty"`
	Score    float32  `json:"score"`
}

type EnsureState int

const (
	CollectionExisted EnsureState = iota
	CollectionCreated
)

func (s EnsureState) String() string {
	if s == CollectionCreated {
		return "created"
	}
	return "existed"
}

type CollectionHandle struct {
	Name  string      `json:"name"`
	State EnsureState `json:"state"`
}
