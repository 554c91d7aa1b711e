package qdrantDB

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/metrics"
	"github.com/akolanti/codex/internal/rag/vectorDB"
	"github.com/akolanti/codex/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

/*
Every publish goes to a fresh collection session_<id>_<version>.
Readers only ever query the alias session_<id>, which is swapped over in one
UpdateAliases call once the new collection is fully written. The old collection
is dropped afterwards. A failed build deletes its own collection and leaves the alias alone.
*/

type ClientHolder struct {
	QObj   *qdrant.Client
	logger *logger_i.Logger
}

func NewClient(ctx context.Context, cfg config.QdrantConfig) (*ClientHolder, error) {
	logger := logger_i.NewLogger("qdrant")
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		APIKey:   cfg.APIKey,
		UseTLS:   cfg.UseTLS,
		PoolSize: uint(cfg.PoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant client: %w", err)
	}

	healthCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if _, err = client.HealthCheck(healthCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("qdrant is offline: %w", err)
	}

	go closeQdrant(ctx, client, logger)
	logger.Info("Qdrant client created", "host", cfg.Host, "port", cfg.Port)
	return &ClientHolder{QObj: client, logger: logger}, nil
}

func closeQdrant(ctx context.Context, qi *qdrant.Client, logger *logger_i.Logger) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
	logger.Info("Closed Qdrant")
}

func aliasName(sessionId string) string {
	return "session_" + sessionId
}

func (db *ClientHolder) Publish(ctx context.Context, index *vectorDB.SessionIndex) error {
	if index == nil {
		return ragErrors.Wrapf(ragErrors.ErrStorageWrite, "nil index")
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("index_write", time.Since(start)) }()

	alias := aliasName(index.SessionId)
	staging := alias + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	log := db.logger.WithTrace(ctx).With("alias", alias, "collection", staging)

	previous, err := db.currentCollection(ctx, alias)
	if err != nil {
		return ragErrors.Wrap(ragErrors.ErrStorageWrite, err)
	}

	if err = db.buildCollection(ctx, staging, index); err != nil {
		log.Error("building collection failed, dropping it", "error", err)
		db.dropCollection(staging, log)
		return ragErrors.Wrap(ragErrors.ErrStorageWrite, err)
	}

	actions := make([]*qdrant.AliasOperations, 0, 2)
	if previous != "" {
		actions = append(actions, qdrant.NewAliasDelete(alias))
	}
	actions = append(actions, qdrant.NewAliasCreate(alias, staging))
	if err = db.QObj.UpdateAliases(ctx, actions); err != nil {
		log.Error("alias swap failed", "error", err)
		db.dropCollection(staging, log)
		return ragErrors.Wrap(ragErrors.ErrStorageWrite, fmt.Errorf("alias swap: %w", err))
	}

	if previous != "" {
		db.dropCollection(previous, log)
	}
	log.Debug("index published", "chunks", len(index.Chunks))
	return nil
}

func (db *ClientHolder) buildCollection(ctx context.Context, name string, index *vectorDB.SessionIndex) error {
	err := db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(index.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	for i := 0; i < len(index.Chunks); i += config.QdrantUpsertBatchSize {
		end := min(i+config.QdrantUpsertBatchSize, len(index.Chunks))
		if err = db.upsertBatch(ctx, name, index.Chunks[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (db *ClientHolder) upsertBatch(ctx context.Context, collection string, chunks []vectorDB.IndexedChunk) error {
	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(chunk.Order)),
			Vectors: qdrant.NewVectors(chunk.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":     chunk.Text,
				"page_num":    chunk.PageNum,
				"chunk_order": chunk.Order,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// dropCollection runs detached from the request so cleanup survives a cancelled caller.
func (db *ClientHolder) dropCollection(name string, log *logger_i.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), config.QdrantConnectionTimeout)
	defer cancel()
	if err := db.QObj.DeleteCollection(ctx, name); err != nil {
		log.Error("could not drop collection", "dropped", name, "error", err)
	}
}

func (db *ClientHolder) currentCollection(ctx context.Context, alias string) (string, error) {
	aliases, err := db.QObj.ListAliases(ctx)
	if err != nil {
		return "", fmt.Errorf("list aliases: %w", err)
	}
	for _, a := range aliases {
		if a.GetAliasName() == alias {
			return a.GetCollectionName(), nil
		}
	}
	return "", nil
}

func (db *ClientHolder) Search(ctx context.Context, sessionId string, query []float32, k int) ([]vectorDB.Match, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("index_read", time.Since(start)) }()

	ok, err := db.Exists(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ragErrors.ErrIndexNotFound
	}

	limit := k + config.QdrantTieSlack
	for {
		matches, err := db.query(ctx, sessionId, query, limit)
		if err != nil {
			return nil, err
		}
		if !tieMayBeCut(matches, k, limit) {
			return rankMatches(matches, k), nil
		}
		limit *= 2
	}
}

func (db *ClientHolder) query(ctx context.Context, sessionId string, query []float32, limit int) ([]vectorDB.Match, error) {
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: aliasName(sessionId),
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		db.logger.WithTrace(ctx).Error("Error querying Qdrant", "sessionId", sessionId, "error", err)
		return nil, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}

	matches := make([]vectorDB.Match, 0, len(result))
	for _, hit := range result {
		matches = append(matches, vectorDB.Match{
			Order:   int(hit.Payload["chunk_order"].GetIntegerValue()),
			PageNum: int(hit.Payload["page_num"].GetIntegerValue()),
			Text:    hit.Payload["content"].GetStringValue(),
			Score:   hit.Score,
		})
	}
	return matches, nil
}

// tieMayBeCut reports whether the last hit still shares the k-th score, so more equal-score chunks may sit past limit.
func tieMayBeCut(matches []vectorDB.Match, k, limit int) bool {
	if k <= 0 || len(matches) < limit || len(matches) <= k {
		return false
	}
	return matches[len(matches)-1].Score == matches[k-1].Score
}

// rankMatches orders by score, then chunk order among equal scores, and keeps the first k.
// qdrant gives no ordering guarantee between equal scores.
func rankMatches(matches []vectorDB.Match, k int) []vectorDB.Match {
	slices.SortStableFunc(matches, func(a, b vectorDB.Match) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.Order, b.Order)
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func (db *ClientHolder) Exists(ctx context.Context, sessionId string) (bool, error) {
	name, err := db.currentCollection(ctx, aliasName(sessionId))
	if err != nil {
		return false, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}
	return name != "", nil
}

func (db *ClientHolder) Delete(ctx context.Context, sessionId string) error {
	alias := aliasName(sessionId)
	name, err := db.currentCollection(ctx, alias)
	if err != nil || name == "" {
		return err
	}
	if err = db.QObj.DeleteAlias(ctx, alias); err != nil {
		return fmt.Errorf("delete alias: %w", err)
	}
	return db.QObj.DeleteCollection(ctx, name)
}
