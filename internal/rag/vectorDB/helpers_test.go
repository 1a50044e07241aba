package vectorDB

import (
	"math"
	"reflect"
	"testing"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(float64(got)-tt.want) > 1e-6 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortChunkIDs(t *testing.T) {
	ids := []string{"doc_10", "doc_2", "a_b_1", "doc_0", "a_b_0"}
	SortChunkIDs(ids)
	want := []string{"a_b_0", "a_b_1", "doc_0", "doc_2", "doc_10"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("SortChunkIDs() = %v, want %v", ids, want)
	}
}

func TestTopK(t *testing.T) {
	matches := []commonModels.Match{{ID: "b", Score: 0.5}, {ID: "a", Score: 0.9}, {ID: "c", Score: 0.5}}
	got := TopK(matches, 2)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("TopK() = %+v", got)
	}
	if NormalizeK(0) != DefaultTopK || NormalizeK(7) != 7 {
		t.Error("NormalizeK did not apply the default")
	}
}

func TestTopK_NonPositiveK(t *testing.T) {
	for _, k := range []int{0, -1} {
		matches := make([]commonModels.Match, 6)
		for i := range matches {
			matches[i] = commonModels.Match{ID: string(rune('a' + i)), Score: float32(i)}
		}
		got := TopK(matches, k)
		if len(got) != DefaultTopK {
			t.Errorf("TopK(k=%d) returned %d matches, want %d", k, len(got), DefaultTopK)
		}
		if got[0].ID != "f" {
			t.Errorf("TopK(k=%d) first = %s, want f", k, got[0].ID)
		}
	}
}
