package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"github.com/mwhitford/feedrank/pkg/constants"
)

// ErrMissingAPIKey is returned by NewClient when the OPENAI_API_KEY
// environment variable is not set.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable is not set")

// Embedding cost per 1M input tokens, used for the approximate
// running-cost log line.
var modelInputCosts = map[string]float32{
	string(openai.AdaEmbeddingV2):  0.10,
	string(openai.SmallEmbedding3): 0.02,
	string(openai.LargeEmbedding3): 0.13,
}

type Client struct {
	client *openai.Client

	// Used to calculate approximate costs
	promptTokens map[string]int
}

func NewClient() (*Client, error) {
	apiKey := os.Getenv(constants.EnvOpenAiApiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &Client{
		client:       openai.NewClient(apiKey),
		promptTokens: make(map[string]int),
	}, nil
}

func (c *Client) CreateEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI embeddings API: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings in response, got %d", len(texts), len(resp.Data))
	}

	embs := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(embs) {
			return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
		}
		embs[d.Index] = d.Embedding
	}

	c.promptTokens[string(model)] += resp.Usage.PromptTokens
	log.WithFields(log.Fields{"model": model, "tokens": resp.Usage.PromptTokens, "total_cost": c.totalCost()}).Debug("OpenAI API CreateEmbeddings call")

	return embs, nil
}

func (c *Client) totalCost() float32 {
	var total float32
	for model, tokens := range c.promptTokens {
		total += float32(tokens) / 1000000 * modelInputCosts[model]
	}

	return total
}
