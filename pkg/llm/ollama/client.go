package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/mwhitford/feedrank/pkg/constants"
)

// API Documentation:
// https://github.com/ollama/ollama/blob/main/docs/api.md#generate-embeddings

const (
	embedAPI = "/api/embed"

	defaultBaseUrl = "http://localhost:11434"
)

type Client struct {
	client  *http.Client
	baseUrl string
}

func NewClient(ctx context.Context) (*Client, error) {
	baseUrl := os.Getenv(constants.EnvOllamaBaseUrl)
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}

	return &Client{
		client:  http.DefaultClient,
		baseUrl: baseUrl,
	}, nil
}

type EmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type EmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

func (c *Client) CreateEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error) {
	embedReq := EmbedRequest{
		Model: model,
		Input: texts,
	}

	reqBody, err := json.Marshal(embedReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal EmbedRequest: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		fmt.Sprintf("%s%s", c.baseUrl, embedAPI),
		bytes.NewBuffer(reqBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embed API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}

	var embedResp EmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to parse EmbedResponse")
	}

	if len(embedResp.Embeddings) == 0 {
		return nil, fmt.Errorf("response is missing embeddings")
	}

	log.WithFields(log.Fields{"model": embedResp.Model, "texts": len(texts)}).Debug("Ollama API CreateEmbeddings call")

	return embedResp.Embeddings, nil
}
