package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// separators are tried in order: paragraph, line, sentence, word, hard cut.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

func NewSplitter(size, overlap int) (Splitter, error) {
	if size <= 0 {
		return Splitter{}, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return Splitter{}, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return Splitter{ChunkSize: size, ChunkOverlap: overlap}, nil
}

// Split cuts text into chunks of at most ChunkSize runes. Consecutive chunks
// produced from the same run of pieces share up to ChunkOverlap runes.
func (s Splitter) Split(text string) []string {
	if isBlank(text) {
		return nil
	}
	if runeLen(text) <= s.ChunkSize {
		return []string{text}
	}
	return s.split(text, separators)
}

func (s Splitter) split(text string, seps []string) []string {
	sep, rest := "", []string(nil)
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep, rest = candidate, seps[i+1:]
			break
		}
	}
	if sep == "" {
		return s.hardCut(text)
	}

	var out, pending []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		if runeLen(piece) <= s.ChunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			out = append(out, s.merge(pending)...)
			pending = nil
		}
		out = append(out, s.split(piece, rest)...)
	}
	if len(pending) > 0 {
		out = append(out, s.merge(pending)...)
	}
	return out
}

// merge packs pieces greedily. When a chunk is emitted the pieces kept for the
// next one are the trailing pieces whose total stays within ChunkOverlap.
func (s Splitter) merge(pieces []string) []string {
	var out, window []string
	total := 0
	for _, piece := range pieces {
		l := runeLen(piece)
		if total+l > s.ChunkSize && len(window) > 0 {
			out = appendChunk(out, strings.Join(window, ""))
			for total > s.ChunkOverlap || (total+l > s.ChunkSize && total > 0) {
				total -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += l
	}
	if len(window) > 0 {
		out = appendChunk(out, strings.Join(window, ""))
	}
	return out
}

func (s Splitter) hardCut(text string) []string {
	runes := []rune(text)
	step := s.ChunkSize - s.ChunkOverlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := min(start+s.ChunkSize, len(runes))
		out = appendChunk(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func appendChunk(out []string, chunk string) []string {
	if isBlank(chunk) {
		return out
	}
	return append(out, chunk)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
