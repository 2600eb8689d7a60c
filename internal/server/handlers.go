package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/models"
	"github.com/bobmcallan/arthmitra/internal/services/goldprice"
	"github.com/bobmcallan/arthmitra/internal/services/intent"
	"github.com/bobmcallan/arthmitra/internal/services/knowledge"
)

const maxUploadBytes = 32 << 20

// chatRequest accepts "message" (frontend) or "query".
type chatRequest struct {
	Message string              `json:"message"`
	Query   string              `json:"query"`
	Profile *models.UserProfile `json:"profile,omitempty"`
}

func (c chatRequest) question() string {
	if q := strings.TrimSpace(c.Query); q != "" {
		return q
	}
	return strings.TrimSpace(c.Message)
}

// goldPriceResponse is returned by GET /api/gold/price.
type goldPriceResponse struct {
	Requested string             `json:"requested"`
	Found     bool               `json:"found"`
	Match     *models.PriceMatch `json:"match,omitempty"`
	Unit      string             `json:"unit"`
	Source    string             `json:"source"`
}

// uploadResponse mirrors the frontend's upload contract.
type uploadResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Result  models.IndexResult `json:"result"`
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// handleDiagnostics handles GET /api/diagnostics: build info, uptime and
// recent entries from the in-memory log writer.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	resp := map[string]any{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"commit":     common.GetGitCommit(),
		"provider":   s.app.Provider,
		"uptime":     time.Since(s.app.StartupTime).Round(time.Second).String(),
		"started_at": s.app.StartupTime,
	}

	if id := r.URL.Query().Get("correlation_id"); id != "" {
		if logs, err := s.app.Logger.GetMemoryLogsForCorrelation(id); err == nil {
			resp["correlation_logs"] = logs
		}
	}
	if logs, err := s.app.Logger.GetMemoryLogsWithLimit(limit); err == nil {
		resp["recent_logs"] = logs
	}

	WriteJSON(w, http.StatusOK, resp)
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Assistant.Status(r.Context()))
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	question := req.question()
	if question == "" {
		WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	answer, err := s.app.Assistant.Handle(r.Context(), question, req.Profile)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, answer)
}

// handleChatStream handles POST /api/chat/stream as server-sent events.
// Failures before the first event are plain JSON errors; later ones are an "error" event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	question := req.question()
	if question == "" {
		WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	started := false
	emit := func(e models.StreamEvent) error {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := writeEvent(w, e); err != nil {
			return err
		}
		flusher.Flush()
		return r.Context().Err()
	}

	err := s.app.Assistant.Stream(r.Context(), question, req.Profile, emit)
	if err == nil {
		return
	}
	if !started {
		s.writeAssistantError(w, r, err)
		return
	}

	common.LoggerFromContext(r.Context(), s.logger).Warn().Err(err).Msg("Chat stream aborted")
	if writeSSE(w, "error", err.Error()) == nil {
		flusher.Flush()
	}
}

// writeEvent encodes one stream event. Text payloads are JSON strings, sources a JSON array.
func writeEvent(w io.Writer, e models.StreamEvent) error {
	switch e.Type {
	case models.StreamSources:
		sources := e.Sources
		if sources == nil {
			sources = []string{}
		}
		return writeSSE(w, string(e.Type), sources)
	case models.StreamDone:
		return writeSSE(w, string(e.Type), "[DONE]")
	default:
		return writeSSE(w, string(e.Type), e.Text)
	}
}

func writeSSE(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// writeAssistantError maps assistant failures to HTTP status codes.
func (s *Server) writeAssistantError(w http.ResponseWriter, r *http.Request, err error) {
	logger := common.LoggerFromContext(r.Context(), s.logger)
	switch {
	case errors.Is(err, models.ErrNotInitialized):
		w.Header().Set("Retry-After", "5")
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Assistant is still initializing, retry shortly", "not_initialized")
	case errors.Is(err, models.ErrGeneration):
		logger.Error().Err(err).Msg("Generation failed")
		WriteErrorWithCode(w, http.StatusBadGateway, "The language model could not answer right now", "generation_failed")
	default:
		logger.Error().Err(err).Msg("Chat request failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// handleGoldPrice handles GET /api/gold/price?date=...
func (s *Server) handleGoldPrice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	text := r.URL.Query().Get("date")
	date, ok := intent.ExtractDate(text)
	if !ok {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("could not read a date from %q", text))
		return
	}

	match, found, err := s.app.Assistant.GoldPrice(r.Context(), date)
	if err != nil {
		s.writeAssistantError(w, r, err)
		return
	}

	resp := goldPriceResponse{
		Requested: date.String(),
		Found:     found,
		Unit:      models.GoldPriceUnit,
		Source:    s.app.Prices.SourceName(),
	}
	status := http.StatusNotFound
	if found {
		resp.Match = &match
		status = http.StatusOK
	}
	WriteJSON(w, status, resp)
}

// handleGoldChart handles GET /api/gold/chart?from=...&to=... and returns a PNG.
// Missing bounds default to the whole series.
func (s *Server) handleGoldChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	from, to := time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	for name, bound := range map[string]*time.Time{"from": &from, "to": &to} {
		text := r.URL.Query().Get(name)
		if text == "" {
			continue
		}
		d, ok := intent.ExtractDate(text)
		if !ok {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("could not read %s date from %q", name, text))
			return
		}
		*bound = d.Time()
	}
	if to.Before(from) {
		WriteError(w, http.StatusBadRequest, "from must not be after to")
		return
	}

	records := s.app.Prices.Series().Between(from, to)
	if len(records) < 2 {
		WriteError(w, http.StatusNotFound, "not enough gold price data in range to draw a chart")
		return
	}

	png, err := goldprice.RenderChart(records)
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error().Err(err).Msg("Gold chart render failed")
		WriteError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleUpload handles POST /api/upload (multipart "file"): saves the file
// into the documents directory and indexes it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if s.app.Knowledge == nil {
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Document indexing is not configured", "no_embedder")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || !knowledge.IsSupported(name) {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type, expected one of %s", strings.Join(knowledge.SupportedExtensions, ", ")))
		return
	}

	if s.app.Knowledge.Excluded(name) {
		WriteErrorWithCode(w, http.StatusBadRequest, fmt.Sprintf("%s is excluded from the knowledge base", name), "excluded_file")
		return
	}

	dir := s.app.Config.Knowledge.DocumentsDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to prepare documents directory")
		return
	}
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	dst.Close()

	result, err := s.app.Knowledge.IndexFile(r.Context(), path)
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Warn().Err(err).Str("file", name).Msg("Upload indexing failed")
		WriteJSON(w, http.StatusUnprocessableEntity, uploadResponse{Status: "error", Message: result.Message, Result: result})
		return
	}
	WriteJSON(w, http.StatusOK, uploadResponse{Status: "success", Message: result.Message, Result: result})
}

// handleReindex handles POST /api/documents/reindex: clears the index and
// rebuilds it from the documents directory.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if s.app.Knowledge == nil {
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Document indexing is not configured", "no_embedder")
		return
	}

	results, err := s.app.Knowledge.Reindex(r.Context(), s.app.Config.Knowledge.DocumentsDir)
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error().Err(err).Msg("Reindex failed")
		WriteError(w, http.StatusInternalServerError, "Reindex failed")
		return
	}
	if results == nil {
		results = []models.IndexResult{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"files": results})
}
