package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrStoreUnavailable      = errors.New("entry store unavailable")
	ErrProviderUnavailable   = errors.New("provider unavailable")
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrEmptyCompletion       = errors.New("empty completion")
	ErrEmbeddingUnavailable  = errors.New("embedding unavailable")
	ErrTemporary             = errors.New("temporary failure")
	ErrUnsupportedSearchMode = errors.New("unsupported search mode")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
