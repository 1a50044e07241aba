// Package fingerprint computes the content hash used to detect changed source files.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

const BlockSize = 4096

// File returns the lower-case hex SHA-256 of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", commonModels.ErrIO, path, err)
	}
	defer f.Close()

	sum, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return sum, nil
}

// Reader folds r into a running SHA-256, one block at a time.
func Reader(r io.Reader) (string, error) {
	hasher := sha256.New()
	buf := make([]byte, BlockSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: reading: %v", commonModels.ErrIO, err)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
