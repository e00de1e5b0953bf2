package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"go-pan-validator/models"

	"github.com/stretchr/testify/require"
)

var testConfig = ServerConfig{
	Host:           "localhost",
	Port:           8081,
	UseTls:         false,
	TlsCertPath:    "",
	TlsPrivKeyPath: "",
}

// testPdf passes the magic-prefix check; page counting is faked in tests.
var testPdf = []byte("%PDF-1.4\nthree page application document")

func startTestServer(t *testing.T, storage TokenStorage, opts ...func(*ServerState)) *Server {
	t.Helper()

	testState := &ServerState{
		validator:      fakePipeline{report: sampleReport()},
		pageCounter:    fakePageCounter{pages: 3},
		tokenStorage:   storage,
		requireSession: false,
		requiredPages:  3,
		maxUploadBytes: 10 << 20,
	}
	for _, opt := range opts {
		opt(testState)
	}

	srv, err := NewServer(testState, testConfig)
	require.NoError(t, err)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("server error: %v", err)
		}
	}()

	waitUntilHealthy(t, "http://localhost:8081/api/health")
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Logf("error shutting down server: %v", err)
		}
	})
	return srv
}

func waitUntilHealthy(t *testing.T, url string) {
	t.Helper()
	const maxAttempts = 50
	for i := 0; i < maxAttempts; i++ {
		if resp, err := http.Get(url); err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server did not start in time")
}

func postJSON[T any](t *testing.T, url string, payload any) (*http.Response, []byte, *T) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	}
	resp, err := http.Post(url, "application/json", body)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded *T
	var v T
	_ = json.Unmarshal(respBody, &v)
	decoded = &v

	return resp, respBody, decoded
}

// postDocument uploads a PDF as multipart form data, with any extra form
// fields such as session_id and nonce.
func postDocument(t *testing.T, url, filename string, pdf []byte, fields map[string]string) (*http.Response, []byte, *models.ValidationReport) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(uploadFieldName, filename)
	require.NoError(t, err)
	_, err = part.Write(pdf)
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	resp, err := http.Post(url, writer.FormDataContentType(), &buf)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var report models.ValidationReport
	_ = json.Unmarshal(respBody, &report)

	return resp, respBody, &report
}

func mustStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body: %s", body)
}

// start-validation bootstrap
func startValidation(t *testing.T) (sessionID, nonce string) {
	t.Helper()
	type startResp struct {
		SessionID string `json:"session_id"`
		Nonce     string `json:"nonce"`
	}
	resp, body, sr := postJSON[startResp](t, "http://localhost:8081/api/start-validation", nil)
	mustStatus(t, resp, http.StatusOK, body)
	require.NotEmpty(t, sr.SessionID)
	require.NotEmpty(t, sr.Nonce)
	return sr.SessionID, sr.Nonce
}

// test doubles

func sampleReport() models.ValidationReport {
	name := "JOHN DOE"
	similarity := 0.95
	return models.ValidationReport{
		ApplicationId: "APP-1A2B3C4D",
		FieldMatches: map[string]models.FieldComparison{
			"name": {Score: 100, Pass: true, Page1Value: &name, Page2Value: &name},
		},
		FieldPass:   true,
		FaceMatch:   models.FaceMatchResult{Similarity: &similarity, Pass: true},
		OverallPass: true,
		Errors:      []models.ValidationError{},
		ProcessedAt: "2026-08-28T10:00:00Z",
		Metrics:     models.Metrics{"total_processing_ms": 12},
	}
}

type fakePipeline struct {
	report models.ValidationReport
	err    error
}

func (p fakePipeline) Validate(_ context.Context, _ []byte) (models.ValidationReport, error) {
	return p.report, p.err
}

type fakePageCounter struct {
	pages int
	err   error
}

func (c fakePageCounter) PageCount(_ []byte) (int, error) {
	return c.pages, c.err
}
