package ragErrors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by indexing and answering. Callers classify with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmbeddingService  = errors.New("embedding service error")
	ErrStorageWrite      = errors.New("index storage write failed")
	ErrIndexNotFound     = errors.New("no index found for session")
	ErrRetrievalFailure  = errors.New("retrieval failed")
	ErrGenerationFailure = errors.New("generation failed")
	ErrUnknownMode       = errors.New("unknown chat mode")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidRequest    = errors.New("invalid request")

	// a model reply without an answer is a generation failure
	ErrMalformedModelResponse = fmt.Errorf("%w: model response carried no answer", ErrGenerationFailure)
)

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// Wrap tags err with kind. Errors already of that kind are returned untouched.
func Wrap(kind error, err error) error {
	if err == nil {
		return kind
	}
	if errors.Is(err, kind) {
		return err
	}
	return &kindError{kind: kind, err: err}
}

// Wrapf is Wrap with a formatted cause.
func Wrapf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, args...)}
}

// Retryable reports whether the caller may retry the same request unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmbeddingService) || errors.Is(err, ErrGenerationFailure)
}
