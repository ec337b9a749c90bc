// Package vision provides an Azure AI Vision image-analysis client used to
// read text out of uploaded images.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIVersion = "2024-02-01"

type Client struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	HTTPClient *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		APIKey:     apiKey,
		APIVersion: defaultAPIVersion,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type analyzeResponse struct {
	ReadResult struct {
		Blocks []struct {
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"blocks"`
	} `json:"readResult"`
}

// Read submits the image to the analyze endpoint with the read feature and
// returns the recognized lines joined by newlines.
func (c *Client) Read(ctx context.Context, image []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/computervision/imageanalysis:analyze?features=read&api-version=%s",
		c.Endpoint, url.QueryEscape(c.APIVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("failed to create vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call vision api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision api returned status %d: %s", resp.StatusCode, string(body))
	}

	var result analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode vision response: %w", err)
	}

	var lines []string
	for _, block := range result.ReadResult.Blocks {
		for _, line := range block.Lines {
			if line.Text != "" {
				lines = append(lines, line.Text)
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
