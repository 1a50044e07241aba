package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

func TestFile(t *testing.T) {
	dir := t.TempDir()
	large := strings.Repeat("block-spanning content ", 1000) // > BlockSize

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"small", "hello world"},
		{"multi block", large},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".txt")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			want := sha256.Sum256([]byte(tt.content))

			got, err := File(path)
			if err != nil {
				t.Fatalf("File() error = %v", err)
			}
			if got != hex.EncodeToString(want[:]) {
				t.Errorf("File() = %s, want %x", got, want)
			}
			if len(got) != 64 {
				t.Errorf("digest length = %d, want 64", len(got))
			}
		})
	}
}

func TestFile_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	_ = os.WriteFile(a, []byte("same bytes"), 0o600)
	_ = os.WriteFile(b, []byte("same bytes"), 0o600)

	ha, _ := File(a)
	hb, _ := File(b)
	if ha != hb {
		t.Errorf("identical content produced different digests: %s vs %s", ha, hb)
	}

	_ = os.WriteFile(b, []byte("same bytez"), 0o600)
	hb, _ = File(b)
	if ha == hb {
		t.Error("one changed byte should change the digest")
	}
}

func TestFile_Missing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, commonModels.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestReader_ReadError(t *testing.T) {
	_, err := Reader(iotest.ErrReader(errors.New("disk gone")))
	if !errors.Is(err, commonModels.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}
