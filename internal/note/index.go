package note

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultCollection    = "notes"
	DefaultEmbeddingDims = 1536
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(apiKey, baseURL string) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.SmallEmbedding3,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response is empty")
	}
	return resp.Data[0].Embedding, nil
}

// pointStore is the subset of the qdrant client the index uses.
type pointStore interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

type Hit struct {
	ID    string
	Score float32
}

// Index keeps note embeddings in a qdrant collection. A nil point store or
// embedder leaves it disabled.
type Index struct {
	points     pointStore
	embedder   Embedder
	collection string
	logger     *slog.Logger
}

func NewIndex(client *qdrant.Client, embedder Embedder, logger *slog.Logger) *Index {
	var points pointStore
	if client != nil {
		points = client
	}
	return newIndex(points, embedder, DefaultCollection, logger)
}

func newIndex(points pointStore, embedder Embedder, collection string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		points:     points,
		embedder:   embedder,
		collection: collection,
		logger:     logger.With("component", "note_index", "collection", collection),
	}
}

func (i *Index) Enabled() bool {
	return i != nil && i.points != nil && i.embedder != nil
}

func (i *Index) EnsureCollection(ctx context.Context, dims uint64) error {
	if !i.Enabled() {
		return shared.ErrUnavailable
	}

	exists, err := i.points.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = i.points.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dims,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	i.logger.Info("created note collection", "dims", dims)
	return nil
}

func (i *Index) Add(ctx context.Context, n *Note) error {
	if !i.Enabled() {
		return shared.ErrUnavailable
	}

	embedding, err := i.embedder.Embed(ctx, n.Text)
	if err != nil {
		return err
	}

	_, err = i.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(n.ID),
				Vectors: qdrant.NewVectors(embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"title":     strings.ToValidUTF8(n.Title, ""),
					"timestamp": n.Timestamp.Unix(),
				}),
			},
		},
	})
	return err
}

func (i *Index) Remove(ctx context.Context, id string) error {
	if !i.Enabled() {
		return shared.ErrUnavailable
	}

	_, err := i.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: i.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	return err
}

func (i *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if !i.Enabled() {
		return nil, shared.ErrUnavailable
	}

	embedding, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := i.points.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		if r.Id == nil {
			continue
		}
		if id := r.Id.GetUuid(); id != "" {
			hits = append(hits, Hit{ID: id, Score: r.Score})
		}
	}
	return hits, nil
}
