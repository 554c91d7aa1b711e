package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/rag/vectorDB"
	"github.com/akolanti/codex/pkg/logger_i"
)

// --- Mocks ---

type mockEmbedder struct {
	batchFunc func(ctx context.Context, chunks []string) ([][]float32, error)
	calls     int
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	m.calls++
	if m.batchFunc != nil {
		return m.batchFunc(ctx, chunks)
	}
	out := make([][]float32, len(chunks))
	for i := range chunks {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

type mockIndex struct {
	published  []*vectorDB.SessionIndex
	publishErr error
}

func (m *mockIndex) Publish(ctx context.Context, index *vectorDB.SessionIndex) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, index)
	return nil
}
func (m *mockIndex) Search(ctx context.Context, sessionId string, q []float32, k int) ([]vectorDB.Match, error) {
	return nil, nil
}
func (m *mockIndex) Exists(ctx context.Context, sessionId string) (bool, error) { return false, nil }
func (m *mockIndex) Delete(ctx context.Context, sessionId string) error         { return nil }

func fakePages(pages ...string) pageExtractor {
	return func(ctx context.Context, data []byte, timeout time.Duration, log *logger_i.Logger) ([]rawPage, error) {
		out := make([]rawPage, len(pages))
		for i, p := range pages {
			out[i] = rawPage{Number: i + 1, Content: p}
		}
		return out, nil
	}
}

func newTestIndexer(em *mockEmbedder, idx *mockIndex, extract pageExtractor) *Indexer {
	ix := NewIndexer(em, idx, config.Default().Engine)
	ix.extract = extract
	return ix
}

var pdfBytes = []byte("%PDF-1.7\n...")

// --- Unit Tests ---

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"test.pdf", true},
		{"REPORT.PDF", true},
		{"notes.txt", false},
		{"pdf", false},
		{"image.png", false},
	}
	for _, tt := range tests {
		if got := getDocType(tt.path) == "PDF"; got != tt.want {
			t.Errorf("getDocType(%s) pdf = %v; want %v", tt.path, got, tt.want)
		}
	}
}

func TestLooksLikePDF(t *testing.T) {
	if !looksLikePDF(pdfBytes) {
		t.Error("expected pdf header to be recognised")
	}
	if looksLikePDF([]byte("PK\x03\x04 zip archive")) {
		t.Error("zip should not look like a pdf")
	}
	if looksLikePDF(nil) {
		t.Error("empty input should not look like a pdf")
	}
}

func TestPrepareChunks_GlobalOrder(t *testing.T) {
	pages := []rawPage{
		{Number: 1, Content: "Page one content."},
		{Number: 3, Content: strings.Repeat("Second page sentence. ", 10)},
	}

	chunks := PrepareChunks("s1", pages, 100, 20)
	if len(chunks) < 3 {
		t.Fatalf("expected the long page to split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if c.Order != i {
			t.Errorf("chunk %d has order %d", i, c.Order)
		}
		if c.SessionId != "s1" {
			t.Errorf("chunk %d has session %q", i, c.SessionId)
		}
	}
	if chunks[0].PageNum != 1 || chunks[1].PageNum != 3 || chunks[1].ChunkPageOrder != 0 {
		t.Errorf("page metadata mismatch: %+v %+v", chunks[0], chunks[1])
	}
}

func TestIndex_Success(t *testing.T) {
	em := &mockEmbedder{}
	idx := &mockIndex{}
	ix := newTestIndexer(em, idx, fakePages("alpha", "beta", "gamma"))

	handle, err := ix.Index(context.Background(), "s1", "doc.pdf", pdfBytes)
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if handle.Chunks != 3 || handle.Pages != 3 || handle.Dimension != 2 {
		t.Errorf("unexpected handle %+v", handle)
	}
	if len(idx.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(idx.published))
	}
	if got := idx.published[0]; got.SessionId != "s1" || got.DocumentName != "doc.pdf" || len(got.Chunks) != 3 {
		t.Errorf("published index mismatch: %+v", got)
	}
}

func TestIndex_BatchesEmbeddings(t *testing.T) {
	pages := make([]string, 150)
	for i := range pages {
		pages[i] = "page text"
	}
	em := &mockEmbedder{}
	ix := newTestIndexer(em, &mockIndex{}, fakePages(pages...))

	if _, err := ix.Index(context.Background(), "s1", "doc.pdf", pdfBytes); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if em.calls != 2 {
		t.Errorf("expected 2 embedding batches (100 + 50), got %d", em.calls)
	}
}

func TestIndex_Failures(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		extract  pageExtractor
		embed    func(ctx context.Context, chunks []string) ([][]float32, error)
		storeErr error
		wantKind error
	}{
		{
			name:     "not a pdf extension",
			fileName: "doc.docx",
			data:     pdfBytes,
			extract:  fakePages("text"),
			wantKind: ragErrors.ErrUnsupportedFormat,
		},
		{
			name:     "not a pdf body",
			fileName: "doc.pdf",
			data:     []byte("hello"),
			extract:  fakePages("text"),
			wantKind: ragErrors.ErrUnsupportedFormat,
		},
		{
			name:     "parser error",
			fileName: "doc.pdf",
			data:     pdfBytes,
			extract: func(context.Context, []byte, time.Duration, *logger_i.Logger) ([]rawPage, error) {
				return nil, errors.New("broken xref")
			},
			wantKind: ragErrors.ErrUnsupportedFormat,
		},
		{
			name:     "scanned pdf without text",
			fileName: "doc.pdf",
			data:     pdfBytes,
			extract:  fakePages("   ", ""),
			wantKind: ragErrors.ErrUnsupportedFormat,
		},
		{
			name:     "embedding service down",
			fileName: "doc.pdf",
			data:     pdfBytes,
			extract:  fakePages("text"),
			embed: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return nil, errors.New("429")
			},
			wantKind: ragErrors.ErrEmbeddingService,
		},
		{
			name:     "embedding returns too few vectors",
			fileName: "doc.pdf",
			data:     pdfBytes,
			extract:  fakePages("one", "two"),
			embed: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return [][]float32{{1}}, nil
			},
			wantKind: ragErrors.ErrEmbeddingService,
		},
		{
			name:     "embedding returns a nil vector",
			fileName: "doc.pdf",
			data:     pdfBytes,
			extract:  fakePages("one"),
			embed: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return [][]float32{nil}, nil
			},
			wantKind: ragErrors.ErrEmbeddingService,
		},
		{
			name:     "storage write fails",
			fileName: "doc.pdf",
			data:     pdfBytes,
			extract:  fakePages("text"),
			storeErr: errors.New("disk full"),
			wantKind: ragErrors.ErrStorageWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &mockIndex{publishErr: tt.storeErr}
			ix := newTestIndexer(&mockEmbedder{batchFunc: tt.embed}, idx, tt.extract)

			_, err := ix.Index(context.Background(), "s1", tt.fileName, tt.data)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("expected %v, got %v", tt.wantKind, err)
			}
			if len(idx.published) != 0 {
				t.Error("nothing should be published on failure")
			}
		})
	}
}

func TestIndex_FailedEmbeddingKeepsPreviousIndex(t *testing.T) {
	ctx := context.Background()
	store := vectorDB.NewBlobIndex(vectorDB.NewMemoryStorage(), "memory")

	good := NewIndexer(&mockEmbedder{}, store, config.Default().Engine)
	good.extract = fakePages("first document")
	if _, err := good.Index(ctx, "s1", "a.pdf", pdfBytes); err != nil {
		t.Fatalf("first index failed: %v", err)
	}

	failing := &mockEmbedder{batchFunc: func(ctx context.Context, chunks []string) ([][]float32, error) {
		return nil, errors.New("upstream timeout")
	}}
	bad := NewIndexer(failing, store, config.Default().Engine)
	bad.extract = fakePages("second document")
	if _, err := bad.Index(ctx, "s1", "b.pdf", pdfBytes); !errors.Is(err, ragErrors.ErrEmbeddingService) {
		t.Fatalf("expected embedding error, got %v", err)
	}

	matches, err := store.Search(ctx, "s1", []float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Text != "first document" {
		t.Errorf("previous index should be intact, got %+v", matches)
	}
}

func TestExtractPDF_GarbageIsAnError(t *testing.T) {
	log := logger_i.NewLogger("test")
	_, err := extractPDF(context.Background(), []byte("%PDF-1.4\nnot really a pdf"), time.Second, log)
	if err == nil {
		t.Error("expected an error for a truncated pdf")
	}
}
