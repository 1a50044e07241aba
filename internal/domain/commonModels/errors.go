package commonModels

import (
	"errors"
	"fmt"
)

var (
	// ErrIO covers unreadable files and missing paths. Fatal for the file only.
	ErrIO                = errors.New("io error")
	// ErrUnsupportedFormat marks files with no loader. They are skipped, never failed.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrService wraps embedding and language model transport failures.
	ErrService           = errors.New("service error")
	// ErrStore means the collection store is unavailable. Fatal for a whole sync run.
	ErrStore             = errors.New("store error")
	ErrEmptyInput        = errors.New("empty input")
)

type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}

func ServiceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrService) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrService, op, err)
}
