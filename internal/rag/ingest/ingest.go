package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/domain/commonModels"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/metrics"
	"github.com/akolanti/codex/internal/rag/embedding"
	"github.com/akolanti/codex/internal/rag/vectorDB"
	"github.com/akolanti/codex/pkg/logger_i"
)

type pageExtractor func(ctx context.Context, data []byte, pageTimeout time.Duration, log *logger_i.Logger) ([]rawPage, error)

// Indexer turns an uploaded PDF into the session's similarity index.
// Nothing is written until every chunk has a vector, so a failed run leaves the previous index as it was.
type Indexer struct {
	embedder embedding.Embedder
	index    vectorDB.DataProcessor
	cfg      config.EngineConfig
	extract  pageExtractor
	logger   *logger_i.Logger
}

type IndexHandle struct {
	SessionId    string    `json:"session_id"`
	DocumentName string    `json:"document_name"`
	Pages        int       `json:"pages"`
	Chunks       int       `json:"chunks"`
	Dimension    int       `json:"dimension"`
	BuiltAt      time.Time `json:"built_at"`
}

func NewIndexer(em embedding.Embedder, index vectorDB.DataProcessor, cfg config.EngineConfig) *Indexer {
	return &Indexer{
		embedder: em,
		index:    index,
		cfg:      cfg,
		extract:  extractPDF,
		logger:   logger_i.NewLogger("document_indexer"),
	}
}

func getDocType(fileName string) commonModels.DocType {
	if strings.ToLower(filepath.Ext(fileName)) == ".pdf" {
		return commonModels.PDF
	}
	return commonModels.ERR
}

func (ix *Indexer) Index(ctx context.Context, sessionId string, fileName string, data []byte) (IndexHandle, error) {
	log := ix.logger.WithTrace(ctx).With("sessionId", sessionId, "filename", fileName)

	if getDocType(fileName) != commonModels.PDF || !looksLikePDF(data) {
		log.Warn("rejecting upload, not a pdf")
		return IndexHandle{}, ragErrors.Wrapf(ragErrors.ErrUnsupportedFormat, "%s is not a PDF", fileName)
	}

	pages, err := ix.executeExtractStep(ctx, log, data)
	if err != nil {
		return IndexHandle{}, err
	}

	chunks := PrepareChunks(sessionId, pages, ix.cfg.ChunkSize, ix.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		log.Warn("no extractable text in document")
		return IndexHandle{}, ragErrors.Wrapf(ragErrors.ErrUnsupportedFormat, "%s has no extractable text", fileName)
	}
	log.Debug("document split", "pages", len(pages), "chunks", len(chunks))

	indexed, err := ix.executeEmbeddingStep(ctx, log, chunks)
	if err != nil {
		return IndexHandle{}, err
	}

	sessionIndex, err := vectorDB.NewSessionIndex(sessionId, fileName, indexed)
	if err != nil {
		return IndexHandle{}, ragErrors.Wrap(ragErrors.ErrEmbeddingService, err)
	}
	if err = ix.index.Publish(ctx, sessionIndex); err != nil {
		log.Error("publishing index failed", "error", err)
		return IndexHandle{}, ragErrors.Wrap(ragErrors.ErrStorageWrite, err)
	}
	metrics.AddIndexedChunks(len(indexed))
	log.Info("document indexed", "chunks", len(indexed), "dimension", sessionIndex.Dimension)

	return IndexHandle{
		SessionId:    sessionId,
		DocumentName: fileName,
		Pages:        len(pages),
		Chunks:       len(indexed),
		Dimension:    sessionIndex.Dimension,
		BuiltAt:      sessionIndex.BuiltAt,
	}, nil
}

func (ix *Indexer) executeExtractStep(ctx context.Context, log *logger_i.Logger, data []byte) ([]rawPage, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("pdf_extract", time.Since(start)) }()

	pages, err := ix.extract(ctx, data, ix.cfg.PageTimeout, log)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, ragErrors.Wrap(ragErrors.ErrUnsupportedFormat, err)
	}
	return pages, nil
}

// PrepareChunks splits every page and numbers the chunks across the whole document.
func PrepareChunks(sessionId string, pages []rawPage, chunkSize, overlap int) []commonModels.DocChunk {
	var allChunks []commonModels.DocChunk
	order := 0
	for _, page := range pages {
		for i, text := range splitTextIntoChunks(page.Content, chunkSize, overlap) {
			allChunks = append(allChunks, commonModels.DocChunk{
				SessionId:      sessionId,
				ChunkId:        fmt.Sprintf("%s-%d", sessionId, order),
				Chunk:          text,
				PageNum:        page.Number,
				Order:          order,
				ChunkPageOrder: i,
			})
			order++
		}
	}
	return allChunks
}

func (ix *Indexer) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, chunks []commonModels.DocChunk) ([]vectorDB.IndexedChunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	batchSize := max(ix.cfg.EmbeddingBatchSize, 1)
	indexed := make([]vectorDB.IndexedChunk, 0, len(chunks))

	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Chunk
		}

		log.Debug("embedding batch", "from", i, "size", len(texts))
		vectors, err := ix.embedder.BatchEmbedding(ctx, texts)
		if err != nil {
			log.Error("embedding batch failed", "from", i, "error", err)
			return nil, ragErrors.Wrap(ragErrors.ErrEmbeddingService, err)
		}
		if len(vectors) != len(batch) {
			return nil, ragErrors.Wrapf(ragErrors.ErrEmbeddingService, "got %d vectors for %d chunks", len(vectors), len(batch))
		}

		for j, c := range batch {
			if len(vectors[j]) == 0 {
				return nil, ragErrors.Wrapf(ragErrors.ErrEmbeddingService, "empty vector for chunk %d", c.Order)
			}
			indexed = append(indexed, vectorDB.IndexedChunk{
				Order:   c.Order,
				PageNum: c.PageNum,
				Text:    c.Chunk,
				Vector:  vectors[j],
			})
		}
	}
	return indexed, nil
}
