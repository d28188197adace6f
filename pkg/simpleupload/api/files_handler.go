package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/cache"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// parts spill to temp files.
const maxUploadMemory = 32 << 20

// FilesHandler handles the file upload, search, download and delete endpoints
type FilesHandler struct {
	service    simpleupload.Service
	results    *cache.ResultCache
	production bool
}

// NewFilesHandler creates a new files handler. In production mode error
// responses carry generic messages; details only go to the log.
func NewFilesHandler(service simpleupload.Service, results *cache.ResultCache, production bool) *FilesHandler {
	return &FilesHandler{
		service:    service,
		results:    results,
		production: production,
	}
}

// Routes returns the router for file endpoints
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.UploadFile)
	r.Get("/", h.ListFiles)
	r.Get("/{id}", h.GetFile)
	r.Get("/{id}/download", h.DownloadFile)
	r.Delete("/{id}", h.DeleteFile)
	return r
}

// FileResponse is the response body for a file record
type FileResponse struct {
	ID               string    `json:"id"`
	StoredName       string    `json:"stored_name"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	Category         string    `json:"category"`
	SizeBytes        int64     `json:"size_bytes"`
	ContentHash      string    `json:"content_hash"`
	UploadedAt       time.Time `json:"uploaded_at"`
	DownloadURL      string    `json:"download_url"`
}

// UploadResponse is the response body for an upload
type UploadResponse struct {
	FileResponse
	IsDuplicate bool   `json:"is_duplicate"`
	Message     string `json:"message,omitempty"`
}

// ListResponse is the response body for a list/search query
type ListResponse struct {
	Files   json.RawMessage `json:"files"`
	Metrics ListMetrics     `json:"metrics"`
}

// ListMetrics carries the timing breakdown of a list query
type ListMetrics struct {
	QueryTimeMs     float64 `json:"query_time_ms"`
	SerializeTimeMs float64 `json:"serialize_time_ms"`
}

func toFileResponse(record *simpleupload.FileRecord) FileResponse {
	return FileResponse{
		ID:               record.ID.String(),
		StoredName:       record.StoredName,
		OriginalFilename: record.OriginalFilename,
		MimeType:         record.MimeType,
		Category:         string(record.Category),
		SizeBytes:        record.SizeBytes,
		ContentHash:      record.ContentHash,
		UploadedAt:       record.UploadedAt,
		DownloadURL:      fmt.Sprintf("/files/%s/download", record.ID),
	}
}

// UploadFile ingests a multipart upload. Duplicate content answers 200 with
// the existing record; new content answers 201.
func (h *FilesHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	req := simpleupload.IngestRequest{
		Reader:           file,
		FileName:         header.Filename,
		DeclaredMimeType: header.Header.Get("Content-Type"),
	}
	if text := r.FormValue("text_content"); text != "" {
		req.TextContent = &text
	}

	result, err := h.service.Ingest(r.Context(), req)
	if err != nil {
		h.writeError(w, "upload", err)
		return
	}

	resp := UploadResponse{
		FileResponse: toFileResponse(result.Record),
		IsDuplicate:  result.Duplicate,
	}
	if result.Duplicate {
		resp.Message = "File already exists"
		render.Status(r, http.StatusOK)
	} else {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, resp)
}

// ListFiles runs a search query, serving the serialized file list from the
// result cache when an identical query was answered within the TTL window.
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	filter := parseSearchFilter(r.URL.Query())
	key := filter.CacheKey()

	var metrics ListMetrics
	payload, hit := h.cachedPayload(key)
	if !hit {
		queryStart := time.Now()
		records, err := h.service.SearchFiles(r.Context(), filter)
		if err != nil {
			h.writeError(w, "list", err)
			return
		}
		metrics.QueryTimeMs = float64(time.Since(queryStart).Microseconds()) / 1000

		files := make([]FileResponse, 0, len(records))
		for _, record := range records {
			files = append(files, toFileResponse(record))
		}

		serializeStart := time.Now()
		payload, err = json.Marshal(files)
		if err != nil {
			h.writeError(w, "list", err)
			return
		}
		metrics.SerializeTimeMs = float64(time.Since(serializeStart).Microseconds()) / 1000

		if h.results != nil {
			h.results.Put(key, payload)
		}
	}

	render.JSON(w, r, ListResponse{Files: payload, Metrics: metrics})
}

// GetFile returns the record for an id
func (h *FilesHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	record, err := h.service.GetFile(r.Context(), id)
	if err != nil {
		h.writeError(w, "get", err)
		return
	}

	render.JSON(w, r, toFileResponse(record))
}

// DownloadFile streams the stored bytes with the original filename restored
func (h *FilesHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	reader, record, err := h.service.DownloadFile(r.Context(), id)
	if err != nil {
		h.writeError(w, "download", err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", record.MimeType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", record.SizeBytes))
	w.Header().Set("Content-Disposition", contentDisposition(record.OriginalFilename))

	if _, err := io.Copy(w, reader); err != nil {
		// Headers are gone; the client sees a truncated body.
		slog.Error("failed streaming download", "file_id", id, "error", err)
	}
}

// DeleteFile removes bytes then record
func (h *FilesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteFile(r.Context(), id); err != nil {
		h.writeError(w, "delete", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FilesHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid file ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *FilesHandler) cachedPayload(key string) ([]byte, bool) {
	if h.results == nil {
		return nil, false
	}
	return h.results.Get(key)
}

// writeError maps domain errors onto status codes. Internal details are
// logged, and in production mode never reach the client.
func (h *FilesHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, simpleupload.ErrFileNotFound):
		http.Error(w, "file not found", http.StatusNotFound)
	case errors.Is(err, simpleupload.ErrEmptyUpload):
		http.Error(w, "no file provided", http.StatusBadRequest)
	case errors.Is(err, simpleupload.ErrInvalidStoredName):
		slog.Error("request failed", "op", op, "error", err)
		http.Error(w, "invalid file name", http.StatusBadRequest)
	default:
		slog.Error("request failed", "op", op, "error", err)
		msg := "internal server error"
		if !h.production {
			msg = err.Error()
		}
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

// parseSearchFilter reads the query parameters of a list request. Malformed
// values degrade to no constraint.
func parseSearchFilter(values url.Values) simpleupload.SearchFilter {
	filter := simpleupload.SearchFilter{
		Query:      values.Get("search"),
		Scope:      simpleupload.SearchScope(values.Get("search_type")),
		Category:   simpleupload.Category(values.Get("category")),
		DateBucket: simpleupload.DateBucket(values.Get("date")),
		SizeBucket: simpleupload.SizeBucket(values.Get("size")),
	}

	if t, ok := parseDateParam(values.Get("date_from"), false); ok {
		filter.DateFrom = &t
	}
	if t, ok := parseDateParam(values.Get("date_to"), true); ok {
		filter.DateTo = &t
	}

	return filter.Normalize()
}

// parseDateParam accepts RFC 3339 timestamps or bare dates. A bare date used
// as an upper bound is pushed to the end of its day so the bound stays
// inclusive.
func parseDateParam(value string, endOfDay bool) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), true
	}

	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), true
}

// contentDisposition builds an attachment header with the filename
// percent-encoded for non-ASCII names (RFC 5987).
func contentDisposition(filename string) string {
	ascii := strings.Map(func(r rune) rune {
		if r < 32 || r > 126 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		ascii, url.PathEscape(filename))
}
