package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mwhitford/feedrank/pkg/llm/ollama"
	"github.com/mwhitford/feedrank/pkg/llm/openai"
)

const (
	// Embedding endpoints are usually limited to 8192 tokens,
	// so longer text is truncated before the call.
	embeddingsMaxTextLength = 8000
)

type ClientType string

// Implementing the pflag.Value interface for ClientType
func (c *ClientType) String() string {
	return string(*c)
}

// Implementing the pflag.Value interface for ClientType
func (c *ClientType) Set(value string) error {
	*c = ClientType(value)
	return nil
}

// Implementing the pflag.Value interface for ClientType
func (c *ClientType) Type() string {
	return "llmClientType"
}

const (
	OpenAI ClientType = "openai"
	Ollama ClientType = "ollama"
)

// ErrMissingCredential is returned when the provider credential
// (API key) is not configured. Not retryable.
var ErrMissingCredential = errors.New("embedding provider credential is not set")

// EmbeddingError wraps any provider failure during an embedding call:
// transport errors, non-success statuses, and malformed responses.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding request failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// EmbeddingClient is the provider-side contract. Implemented by the
// openai and ollama sub-packages.
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// Client wraps an embedding provider with a configured model and the
// text normalization applied before every call.
type Client struct {
	client   EmbeddingClient
	modelEmb string
}

func NewClient(ctx context.Context, llmType ClientType, modelEmb string) (*Client, error) {
	var embClient EmbeddingClient
	var err error

	switch llmType {
	case OpenAI:
		embClient, err = openai.NewClient()
		if err != nil {
			if errors.Is(err, openai.ErrMissingAPIKey) {
				return nil, ErrMissingCredential
			}
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
	case Ollama:
		embClient, err = ollama.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported LLM client: %s", llmType)
	}

	return &Client{
		client:   embClient,
		modelEmb: modelEmb,
	}, nil
}

// NewClientWith wires an already-built provider. Used by tests to
// inject a fake provider.
func NewClientWith(client EmbeddingClient, modelEmb string) *Client {
	return &Client{
		client:   client,
		modelEmb: modelEmb,
	}
}

// Embedding encodes a single text. Any provider failure is surfaced
// as a *EmbeddingError.
func (c *Client) Embedding(ctx context.Context, text string) ([]float32, error) {
	embs, err := c.Embeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return embs[0], nil
}

// Embeddings encodes a batch of texts in a single provider call,
// returning one vector per input in the same order.
func (c *Client) Embeddings(ctx context.Context, texts []string) ([][]float32, error) {
	cleaned := make([]string, len(texts))
	for i, text := range texts {
		cleaned[i] = cleanTextForEmbeddings(text)
	}

	embs, err := c.client.CreateEmbeddings(ctx, c.modelEmb, cleaned)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	if len(embs) != len(texts) {
		return nil, &EmbeddingError{Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embs))}
	}
	for i, emb := range embs {
		if len(emb) == 0 {
			return nil, &EmbeddingError{Err: fmt.Errorf("empty embedding vector at index %d", i)}
		}
	}

	return embs, nil
}

var tagRe = regexp.MustCompile(`<[^>-]*>`)

func cleanTextForEmbeddings(text string) string {
	// Lowercase the text
	cleanedText := strings.ToLower(text)

	// Remove non-relevant characters
	cleanedText = tagRe.ReplaceAllString(cleanedText, "")

	// Replace multiple whitespaces with a single space
	cleanedText = strings.Join(strings.Fields(cleanedText), " ")

	cleanedText = strings.TrimSpace(cleanedText)

	if len(cleanedText) > embeddingsMaxTextLength {
		cleanedText = cleanedText[:embeddingsMaxTextLength]
	}

	return cleanedText
}
