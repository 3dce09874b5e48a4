package embed

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/option"
)

const DefaultBatchSize = 100

// GeminiEmbedder calls the Gemini embedding API in batches.
type GeminiEmbedder struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	modelName string
	batchSize int
	logger    hclog.Logger
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, batchSize int, logger hclog.Logger) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini embedder: API key not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GeminiEmbedder{
		client:    client,
		model:     client.EmbeddingModel(modelName),
		modelName: modelName,
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

func (g *GeminiEmbedder) Model() string { return g.modelName }

func (g *GeminiEmbedder) Close() error { return g.client.Close() }

func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, b := range batches(len(texts), g.batchSize) {
		batch := g.model.NewBatch()
		for _, t := range texts[b[0]:b[1]] {
			batch.AddContent(genai.Text(t))
		}
		g.logger.Debug("embedding batch", "model", g.modelName, "from", b[0], "to", b[1])
		res, err := g.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", b[0], b[1], err)
		}
		if len(res.Embeddings) != b[1]-b[0] {
			return nil, fmt.Errorf("embed batch %d-%d: got %d embeddings", b[0], b[1], len(res.Embeddings))
		}
		for _, e := range res.Embeddings {
			out = append(out, e.Values)
		}
	}
	return out, nil
}
