// Package search queries an external hybrid index (lexical + vector +
// semantic rerank). The index schema is not under our control: hits arrive as
// free-form field sets and are mined for text best-effort.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/pkg/llm"
)

// Hit is one scored result from the index.
type Hit struct {
	Score  float64
	Fields map[string]interface{}
}

// Searcher is the retrieval contract the specialists consume.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...Option) ([]Hit, error)
}

type Option func(*Options)

type Options struct {
	Top      int
	MinScore float64
}

func WithTop(top int) Option {
	return func(o *Options) {
		o.Top = top
	}
}

func WithMinScore(score float64) Option {
	return func(o *Options) {
		o.MinScore = score
	}
}

const (
	defaultTop      = 5
	defaultMinScore = 0.5

	// overFetchFactor requests more hits than the caller asked for so the
	// score filter still has enough material to choose from.
	overFetchFactor = 3

	apiVersion = "2024-07-01"
)

// Client issues hybrid queries against one named index of an Azure AI
// Search-style service. The query embedding comes from the completion
// provider; when embedding fails the query degrades to lexical+semantic.
type Client struct {
	endpoint    string
	apiKey      string
	indexName   string
	vectorField string
	minScore    float64
	llmProvider llm.LLMProvider
	httpClient  *http.Client
	logger      logger.ILogger
}

var _ Searcher = &Client{}

func NewClient(endpoint, apiKey, indexName, vectorField string, minScore float64, llmProvider llm.LLMProvider, log logger.ILogger) *Client {
	if minScore <= 0 {
		minScore = defaultMinScore
	}
	return &Client{
		endpoint:    endpoint,
		apiKey:      apiKey,
		indexName:   indexName,
		vectorField: vectorField,
		minScore:    minScore,
		llmProvider: llmProvider,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// IndexName identifies which knowledge base this client serves.
func (c *Client) IndexName() string {
	return c.indexName
}

// --- Wire structs ---

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

type searchRequest struct {
	Search                string        `json:"search"`
	Top                   int           `json:"top"`
	QueryType             string        `json:"queryType"`
	SemanticConfiguration string        `json:"semanticConfiguration,omitempty"`
	VectorQueries         []vectorQuery `json:"vectorQueries,omitempty"`
}

type searchResponse struct {
	Value []map[string]interface{} `json:"value"`
}

// Search runs the hybrid query and returns hits at or above the relevance
// threshold, ranked by the service. Embedding failure never fails the search.
func (c *Client) Search(ctx context.Context, query string, opts ...Option) ([]Hit, error) {
	options := &Options{
		Top:      defaultTop,
		MinScore: c.minScore,
	}
	for _, opt := range opts {
		opt(options)
	}

	fetch := options.Top * overFetchFactor

	reqPayload := searchRequest{
		Search:                query,
		Top:                   fetch,
		QueryType:             "semantic",
		SemanticConfiguration: "default",
	}

	// Vector leg is optional: a dead embedding endpoint degrades the query
	// to lexical + semantic instead of failing it.
	if vector, err := c.llmProvider.Embed(ctx, query); err != nil {
		c.logger.Warn("search", "query embedding failed, degrading to lexical search", map[string]interface{}{
			"index": c.indexName,
			"error": err.Error(),
		})
	} else if len(vector) > 0 {
		reqPayload.VectorQueries = []vectorQuery{
			{
				Kind:   "vector",
				Vector: vector,
				Fields: c.vectorField,
				K:      fetch,
			},
		}
	}

	raw, err := c.post(ctx, reqPayload)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(raw.Value))
	for _, doc := range raw.Value {
		hits = append(hits, Hit{
			Score:  hitScore(doc),
			Fields: doc,
		})
	}

	return FilterByScore(hits, options.MinScore, options.Top), nil
}

func (c *Client) post(ctx context.Context, payload searchRequest) (*searchResponse, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.indexName, apiVersion)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(bodyBytes, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &searchResp, nil
}

// hitScore prefers the semantic reranker score when the service provides one.
func hitScore(doc map[string]interface{}) float64 {
	if v, ok := doc["@search.rerankerScore"].(float64); ok && v > 0 {
		return v
	}
	if v, ok := doc["@search.score"].(float64); ok {
		return v
	}
	return 0
}

// FilterByScore keeps hits at or above threshold, preserving rank order, and
// caps the result at top entries.
func FilterByScore(hits []Hit, threshold float64, top int) []Hit {
	filtered := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= threshold {
			filtered = append(filtered, h)
		}
	}
	if top > 0 && len(filtered) > top {
		filtered = filtered[:top]
	}
	return filtered
}
