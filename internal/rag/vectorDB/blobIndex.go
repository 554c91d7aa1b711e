package vectorDB

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/metrics"
	"github.com/akolanti/codex/pkg/logger_i"
)

var ErrBlobNotFound = errors.New("index blob not found")

// BlobStorage keeps one opaque blob per session. Write must replace the old blob atomically.
type BlobStorage interface {
	Write(ctx context.Context, sessionId string, blob []byte) error
	Read(ctx context.Context, sessionId string) ([]byte, error)
	Exists(ctx context.Context, sessionId string) (bool, error)
	Delete(ctx context.Context, sessionId string) error
}

type blobIndex struct {
	storage BlobStorage
	logger  *logger_i.Logger
}

// NewBlobIndex serves DataProcessor from serialized indexes. Each Search loads the blob fresh.
func NewBlobIndex(storage BlobStorage, name string) DataProcessor {
	return &blobIndex{
		storage: storage,
		logger:  logger_i.NewLogger("index_" + name),
	}
}

func (b *blobIndex) Publish(ctx context.Context, index *SessionIndex) error {
	if index == nil {
		return ragErrors.Wrapf(ragErrors.ErrStorageWrite, "nil index")
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("index_write", time.Since(start)) }()

	blob, err := json.Marshal(index)
	if err != nil {
		return ragErrors.Wrap(ragErrors.ErrStorageWrite, fmt.Errorf("encoding index: %w", err))
	}
	if err = b.storage.Write(ctx, index.SessionId, blob); err != nil {
		b.logger.WithTrace(ctx).Error("index write failed", "sessionId", index.SessionId, "error", err)
		return ragErrors.Wrap(ragErrors.ErrStorageWrite, err)
	}
	b.logger.WithTrace(ctx).Debug("index published", "sessionId", index.SessionId, "chunks", len(index.Chunks), "bytes", len(blob))
	return nil
}

func (b *blobIndex) Search(ctx context.Context, sessionId string, query []float32, k int) ([]Match, error) {
	index, err := b.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	matches, err := index.Search(query, k)
	if err != nil {
		return nil, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}
	return matches, nil
}

func (b *blobIndex) load(ctx context.Context, sessionId string) (*SessionIndex, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("index_read", time.Since(start)) }()

	blob, err := b.storage.Read(ctx, sessionId)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, ragErrors.Wrap(ragErrors.ErrIndexNotFound, err)
	}
	if err != nil {
		return nil, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}

	var index SessionIndex
	if err = json.Unmarshal(blob, &index); err != nil {
		return nil, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, fmt.Errorf("decoding index: %w", err))
	}
	return &index, nil
}

func (b *blobIndex) Exists(ctx context.Context, sessionId string) (bool, error) {
	ok, err := b.storage.Exists(ctx, sessionId)
	if err != nil {
		return false, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}
	return ok, nil
}

func (b *blobIndex) Delete(ctx context.Context, sessionId string) error {
	err := b.storage.Delete(ctx, sessionId)
	if err != nil && !errors.Is(err, ErrBlobNotFound) {
		return err
	}
	return nil
}
