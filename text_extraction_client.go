package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// TextExtractionClient is the OCR capability consumed by the validation
// orchestrator. Implementations return the detected text of a JPEG image as
// newline-joined lines.
type TextExtractionClient interface {
	ExtractText(ctx context.Context, image []byte) (string, error)

	// HealthCheck verifies the OCR service is available
	HealthCheck() error
}

// RegulaDocReaderClient implements TextExtractionClient against the Regula
// Document Reader API.
type RegulaDocReaderClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRegulaDocReaderClient creates a new instance of RegulaDocReaderClient
func NewRegulaDocReaderClient(baseURL string) *RegulaDocReaderClient {
	return &RegulaDocReaderClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ExtractText submits the image to the processing endpoint and joins the
// LINE-typed text blocks of the response with newlines. An empty result is
// not an error here; the caller decides what absent text means.
func (c *RegulaDocReaderClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	url := fmt.Sprintf("%s/api/process", c.baseURL)

	requestBody := map[string]interface{}{
		"image": base64.StdEncoding.EncodeToString(image),
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute OCR request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OCR failed with status %d: %s", resp.StatusCode, string(body))
	}

	var ocrResponse struct {
		Blocks []struct {
			BlockType string `json:"block_type"`
			Text      string `json:"text"`
		} `json:"blocks"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&ocrResponse); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}

	var lines []string
	for _, block := range ocrResponse.Blocks {
		if block.BlockType == "LINE" {
			lines = append(lines, block.Text)
		}
	}

	slog.Info("Text extraction completed", "lines", len(lines))
	return strings.Join(lines, "\n"), nil
}

// HealthCheck verifies the Regula Document Reader API service is available
func (c *RegulaDocReaderClient) HealthCheck() error {
	url := fmt.Sprintf("%s/api/healthz", c.baseURL)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute health check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check failed with status %d: %s", resp.StatusCode, string(body))
	}

	slog.Info("Regula Document Reader health check passed")
	return nil
}
