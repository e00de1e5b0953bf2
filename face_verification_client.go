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
	"time"
)

// FaceVerificationClient is the face-comparison capability consumed by the
// validation orchestrator. Implementations compare the faces on two JPEG
// images and return a similarity score in [0,1].
type FaceVerificationClient interface {
	CompareFaces(ctx context.Context, source, target []byte) (float64, error)

	// HealthCheck verifies the face API service is available
	HealthCheck() error
}

// RegulaFaceClient implements FaceVerificationClient against the Regula
// Face API.
type RegulaFaceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRegulaFaceClient creates a new instance of RegulaFaceClient
func NewRegulaFaceClient(baseURL string) *RegulaFaceClient {
	return &RegulaFaceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CompareFaces submits both images to the match endpoint. A response without
// any results means no matching faces were found and scores 0; transport and
// provider errors are returned to the caller, which treats the comparison as
// undetermined.
func (c *RegulaFaceClient) CompareFaces(ctx context.Context, source, target []byte) (float64, error) {
	url := fmt.Sprintf("%s/api/match", c.baseURL)

	requestBody := map[string]interface{}{
		"images": []map[string]interface{}{
			{
				"type":  1, // First image
				"data":  base64.StdEncoding.EncodeToString(source),
				"index": 1,
			},
			{
				"type":  2, // Second image
				"data":  base64.StdEncoding.EncodeToString(target),
				"index": 2,
			},
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute match request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("face match failed with status %d: %s", resp.StatusCode, string(body))
	}

	var regulaResponse struct {
		Results []struct {
			Similarity float64 `json:"similarity"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&regulaResponse); err != nil {
		return 0, fmt.Errorf("failed to decode match response: %w", err)
	}

	var similarity float64
	if len(regulaResponse.Results) > 0 {
		similarity = regulaResponse.Results[0].Similarity
	}

	slog.Info("Face match completed", "similarity", similarity)
	return similarity, nil
}

// HealthCheck verifies the Regula Face API service is available
func (c *RegulaFaceClient) HealthCheck() error {
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

	slog.Info("Regula Face API health check passed")
	return nil
}
