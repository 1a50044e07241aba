package vectorDB

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

// Cosine returns the cosine similarity of a and b, 0 when either is a zero vector.
func Cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// TopK sorts matches by descending score, ties broken by id, and truncates to k.
// k <= 0 means DefaultTopK.
func TopK(matches []commonModels.Match, k int) []commonModels.Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	k = NormalizeK(k)
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// SortChunkIDs orders "{filename}_{index}" ids by filename and then numerically by index.
func SortChunkIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		pi, ni := splitChunkID(ids[i])
		pj, nj := splitChunkID(ids[j])
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})
}

func splitChunkID(id string) (string, int) {
	pos := strings.LastIndex(id, "_")
	if pos < 0 {
		return id, -1
	}
	n, err := strconv.Atoi(id[pos+1:])
	if err != nil {
		return id, -1
	}
	return id[:pos], n
}
