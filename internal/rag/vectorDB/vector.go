package vectorDB

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

// DataProcessor persists one similarity index per session and answers nearest-neighbour queries over it.
// Publish replaces the previous index for the session as a whole; readers never see a half-written one.
type DataProcessor interface {
	Publish(ctx context.Context, index *SessionIndex) error
	Search(ctx context.Context, sessionId string, query []float32, k int) ([]Match, error)
	Exists(ctx context.Context, sessionId string) (bool, error)
	Delete(ctx context.Context, sessionId string) error
}

type IndexedChunk struct {
	Order   int       `json:"order"`
	PageNum int       `json:"page_num"`
	Text    string    `json:"text"`
	Vector  []float32 `json:"vector"`
}

type SessionIndex struct {
	SessionId    string         `json:"session_id"`
	DocumentName string         `json:"document_name"`
	Dimension    int            `json:"dimension"`
	BuiltAt      time.Time      `json:"built_at"`
	Chunks       []IndexedChunk `json:"chunks"`
}

type Match struct {
	Order   int     `json:"order"`
	PageNum int     `json:"page_num"`
	Text    string  `json:"text"`
	Score   float32 `json:"score"`
}

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

func NewSessionIndex(sessionId, documentName string, chunks []IndexedChunk) (*SessionIndex, error) {
	if sessionId == "" {
		return nil, errors.New("session id is required")
	}
	if len(chunks) == 0 {
		return nil, errors.New("index has no chunks")
	}
	dim := len(chunks[0].Vector)
	if dim == 0 {
		return nil, errors.New("chunk vectors are empty")
	}
	for i, c := range chunks {
		if len(c.Vector) != dim {
			return nil, fmt.Errorf("%w: chunk %d has %d, want %d", ErrDimensionMismatch, i, len(c.Vector), dim)
		}
	}
	return &SessionIndex{
		SessionId:    sessionId,
		DocumentName: documentName,
		Dimension:    dim,
		BuiltAt:      time.Now().UTC(),
		Chunks:       chunks,
	}, nil
}

// Search ranks chunks by cosine similarity to query. Equal scores keep chunk order.
// k larger than the index is capped at the chunk count.
func (idx *SessionIndex) Search(query []float32, k int) ([]Match, error) {
	if len(query) != idx.Dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), idx.Dimension)
	}
	if k <= 0 {
		return []Match{}, nil
	}

	qNorm := norm(query)
	matches := make([]Match, 0, len(idx.Chunks))
	for _, c := range idx.Chunks {
		matches = append(matches, Match{
			Order:   c.Order,
			PageNum: c.PageNum,
			Text:    c.Text,
			Score:   cosine(query, qNorm, c.Vector),
		})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return a.Order - b.Order
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

func cosine(q []float32, qNorm float64, v []float32) float32 {
	vNorm := norm(v)
	if qNorm == 0 || vNorm == 0 {
		return 0
	}
	var dot float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
	}
	return float32(dot / (qNorm * vNorm))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
