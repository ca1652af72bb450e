package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/spektr-org/tabula/assistant"
	"github.com/spektr-org/tabula/helpers"
)

// Content types accepted by LoadDataset besides JSON.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeTSV  = "text/tab-separated-values"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler serves dataset and question requests.
type Handler struct {
	logger    zerolog.Logger
	assistant *assistant.Assistant
	maxBody   int64
}

// NewHandler creates a new handler.
func NewHandler(logger zerolog.Logger, a *assistant.Assistant, maxBody int64) *Handler {
	return &Handler{
		logger:    logger,
		assistant: a,
		maxBody:   maxBody,
	}
}

// DatasetRequestDTO is the JSON form of a dataset upload.
type DatasetRequestDTO struct {
	Name   string   `json:"name"`
	Header []string `json:"header"`
	Rows   [][]any  `json:"rows"`
}

// DatasetResponseDTO describes the loaded dataset.
type DatasetResponseDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Records  int      `json:"records"`
	Columns  []string `json:"columns"`
	Keywords int      `json:"keywords"`
}

// AskRequestDTO is a question.
type AskRequestDTO struct {
	Question string `json:"question"`
}

// LoadDataset handles PUT /dataset. The body is either JSON
// (DatasetRequestDTO) or a CSV, TSV or XLSX file named by ?name=.
func (h *Handler) LoadDataset(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "dataset too large", err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	table, err := h.decodeTable(r, body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid dataset", err.Error())
		return
	}

	if err := h.assistant.LoadTable(r.Context(), table); err != nil {
		h.logger.Error().Err(err).Str("name", table.Name).Msg("dataset load failed")
		h.writeError(w, http.StatusInternalServerError, "dataset load failed", err.Error())
		return
	}

	snap := h.assistant.Snapshot()
	if snap == nil {
		h.writeError(w, http.StatusConflict, assistant.NoDatasetMessage, "")
		return
	}
	h.writeJSON(w, http.StatusOK, DatasetResponseDTO{
		ID:       snap.ID,
		Name:     snap.Name,
		Records:  snap.Len(),
		Columns:  snap.Headers,
		Keywords: snap.Index.Len(),
	})
}

func (h *Handler) decodeTable(r *http.Request, body []byte) (helpers.Table, error) {
	name := r.URL.Query().Get("name")
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		table helpers.Table
		err   error
	)
	switch strings.ToLower(mediaType) {
	case ContentTypeCSV:
		table, err = helpers.ReadCSV(bytes.NewReader(body), ',')
	case ContentTypeTSV:
		table, err = helpers.ReadCSV(bytes.NewReader(body), '\t')
	case ContentTypeXLSX:
		table, err = helpers.ReadXLSX(bytes.NewReader(body), r.URL.Query().Get("sheet"))
	default:
		var req DatasetRequestDTO
		if err := json.Unmarshal(body, &req); err != nil {
			return helpers.Table{}, err
		}
		if len(req.Header) == 0 {
			return helpers.Table{}, helpers.ErrNoHeader
		}
		table = helpers.Table{Name: req.Name, Header: req.Header, Rows: req.Rows}
	}
	if err != nil {
		return helpers.Table{}, err
	}
	if name != "" {
		table.Name = name
	}
	if table.Name == "" {
		table.Name = "upload"
	}
	return table, nil
}

// ClearDataset handles DELETE /dataset.
func (h *Handler) ClearDataset(w http.ResponseWriter, r *http.Request) {
	h.assistant.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// Columns handles GET /dataset/columns.
func (h *Handler) Columns(w http.ResponseWriter, r *http.Request) {
	snap := h.assistant.Snapshot()
	if snap == nil {
		h.writeError(w, http.StatusConflict, assistant.NoDatasetMessage, "")
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Schema)
}

// Ask handles POST /ask. Answers, including degraded ones, are 200.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequestDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	out := h.assistant.Ask(r.Context(), req.Question)
	status := http.StatusOK
	switch {
	case out.OK():
	case errors.Is(out.Err, assistant.ErrNoDataset):
		status = http.StatusConflict
	case errors.Is(out.Err, assistant.ErrBlankQuestion):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	h.writeJSON(w, status, out)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	h.writeJSON(w, status, resp)
}
