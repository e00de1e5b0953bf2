package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-pan-validator/models"

	"github.com/gorilla/mux"
)

const ErrorInternal = "error:internal"
const ERR_MARSHAL = "failed to marshal response message"
const ERR_TOKEN_REMOVAL = "failed to remove token from storage"
const ERR_TOKEN_RETRIEVAL = "failed to get nonce from storage"
const ERR_INVALID_NONCE_SESSION = "invalid session or nonce"
const ERR_DOCUMENT_VALIDATION = "failed to validate document"
const ERR_UPLOAD_READ = "failed to read uploaded document"

const uploadFieldName = "file"

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	UseTls         bool   `json:"use_tls,omitempty"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty"`
	TlsCertPath    string `json:"tls_cert_path,omitempty"`
}

// DocumentValidator runs the full validation pipeline on an uploaded PDF.
type DocumentValidator interface {
	Validate(ctx context.Context, pdf []byte) (models.ValidationReport, error)
}

// PageCounter reports how many pages a PDF has, so uploads with the wrong
// shape can be rejected before any pipeline work is scheduled.
type PageCounter interface {
	PageCount(pdf []byte) (int, error)
}

type ServerState struct {
	validator      DocumentValidator
	pageCounter    PageCounter
	tokenStorage   TokenStorage
	requireSession bool
	requiredPages  int
	maxUploadBytes int64
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	} else {
		slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
		return s.server.ListenAndServe()
	}
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Health check request received")
		err := json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		if err != nil {
			slog.Error("failed to write body to http response", "error", err)
		}
	})

	router.HandleFunc("/api/start-validation", func(w http.ResponseWriter, r *http.Request) {
		handleStartValidation(state, w, r)
	})
	router.HandleFunc("/api/validate", func(w http.ResponseWriter, r *http.Request) {
		handleValidateDocument(state, w, r)
	})

	slog.Debug("Registered all API routes")

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler: router,
		Addr:    addr,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}

	slog.Info("Server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

type StartValidationResponse struct {
	SessionId string `json:"session_id"`
	Nonce     string `json:"nonce"`
}

func handleStartValidation(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to start document validation")

	slog.Debug("Generating session ID")
	sessionId := GenerateSessionId()
	if sessionId == "" {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate session ID", fmt.Errorf("failed to generate session ID"))
		return
	}
	slog.Debug("Session ID generated", "session_id", sessionId)

	// Generate an 8 byte nonce
	slog.Debug("Generating nonce", "session_id", sessionId)
	nonce, err := GenerateNonce(8)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate nonce", err)
		return
	}
	slog.Debug("Nonce generated", "session_id", sessionId)

	// Stored until the validation report is handed over
	slog.Debug("Storing nonce in token storage", "session_id", sessionId)
	err = state.tokenStorage.StoreToken(sessionId, nonce)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to store nonce", err)
		return
	}
	slog.Debug("Nonce stored successfully", "session_id", sessionId)

	response := StartValidationResponse{
		SessionId: sessionId,
		Nonce:     nonce,
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Document validation started successfully", "session_id", sessionId)
}

func handleValidateDocument(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to validate a document")

	pdf, sessionId, err := decodeValidateRequest(state, w, r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", ERR_DOCUMENT_VALIDATION, err)
		return
	}

	slog.Debug("Counting document pages", "session_id", sessionId, "size", len(pdf))
	pages, err := state.pageCounter.PageCount(pdf)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to open uploaded document", err)
		return
	}
	if pages != state.requiredPages {
		err := fmt.Errorf("need exactly %d pages, got %d", state.requiredPages, pages)
		respondWithErr(w, http.StatusBadRequest, "invalid request", "unexpected page count", err)
		return
	}

	report, err := state.validator.Validate(r.Context(), pdf)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_DOCUMENT_VALIDATION, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Document validation completed successfully", "application_id", report.ApplicationId, "overall_pass", report.OverallPass)
	if sessionId != "" {
		removeSessionToken(w, state.tokenStorage, sessionId)
	}
}

// decodeValidateRequest pulls the PDF and the optional session credentials
// out of the multipart form. The session is validated here when present, or
// required outright when the server is configured that way.
func decodeValidateRequest(state *ServerState, w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, state.maxUploadBytes)

	if err := r.ParseMultipartForm(state.maxUploadBytes); err != nil {
		return nil, "", fmt.Errorf("%s: %w", ERR_UPLOAD_READ, err)
	}

	sessionId := r.FormValue("session_id")
	nonce := r.FormValue("nonce")
	if state.requireSession && sessionId == "" {
		return nil, "", fmt.Errorf("%s", ERR_INVALID_NONCE_SESSION)
	}
	if sessionId != "" {
		if err := validateSession(state.tokenStorage, sessionId, nonce); err != nil {
			return nil, "", err
		}
	}

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		return nil, "", fmt.Errorf("missing %q form field: %w", uploadFieldName, err)
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return nil, "", fmt.Errorf("unexpected file name %q, only PDF uploads are accepted", header.Filename)
	}

	pdf, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", ERR_UPLOAD_READ, err)
	}

	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		return nil, "", fmt.Errorf("uploaded file is not a PDF document")
	}

	slog.Debug("Upload decoded", "session_id", sessionId, "filename", header.Filename, "size", len(pdf))
	return pdf, sessionId, nil
}

// -----------------------------------------------------------------------------------

// validateSession validates session and nonce
func validateSession(storage TokenStorage, sessionId, nonce string) error {
	slog.Debug("Validating session and nonce", "session_id", sessionId)
	storedNonce, err := storage.RetrieveToken(sessionId)
	if err != nil {
		slog.Warn("Failed to retrieve token from storage", "session_id", sessionId, "error", err)
		return fmt.Errorf("%s: %w", ERR_TOKEN_RETRIEVAL, err)
	}

	if storedNonce == "" || storedNonce != nonce {
		slog.Warn("Invalid nonce or session", "session_id", sessionId, "nonce_empty", storedNonce == "", "nonce_match", storedNonce == nonce)
		return fmt.Errorf("%s", ERR_INVALID_NONCE_SESSION)
	}

	slog.Debug("Session validation successful", "session_id", sessionId)
	return nil
}

// removeSessionToken removes token and logs error if failed
func removeSessionToken(w http.ResponseWriter, storage TokenStorage, sessionId string) {
	slog.Debug("Removing session token", "session_id", sessionId)
	if err := storage.RemoveToken(sessionId); err != nil {
		slog.Error(ERR_TOKEN_REMOVAL, "session_id", sessionId, "error", err)
	} else {
		slog.Debug("Session token removed successfully", "session_id", sessionId)
	}
}

func GenerateSessionId() string {
	sessionId := make([]byte, 16)
	if _, err := rand.Read(sessionId); err != nil {
		slog.Error("failed to generate session ID", "error", err)
		return ""
	}
	hexId := fmt.Sprintf("%x", sessionId)
	slog.Debug("Session ID generated successfully", "session_id", hexId)
	return hexId
}

// GenerateNonce Generates a random nonce
func GenerateNonce(i int) (string, error) {
	nonce := make([]byte, i)
	if _, err := rand.Read(nonce); err != nil {
		slog.Error("failed to generate nonce", "error", err)
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	hexString := hex.EncodeToString(nonce)
	slog.Debug("Nonce generated successfully", "length", i)
	return hexString, nil
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// helpers ------------

func closeRequestBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}

}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		respondWithErr(w, http.StatusMethodNotAllowed, "method not allowed", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	slog.Debug("Writing JSON response", "status_code", status)
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		slog.Error("failed to write body to http response", "error", err)
	} else {
		slog.Debug("JSON response written successfully", "status_code", status, "payload_size", len(payload))
	}
	return nil
}
