package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestRequestLogger(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("Hello"))
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	wrapped := RequestLogger(logger)(handler)

	req := httptest.NewRequest("POST", "/files", nil)
	rr := httptest.NewRecorder()

	wrapped.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Hello", rr.Body.String())

	line := buf.String()
	assert.Contains(t, line, "method=POST")
	assert.Contains(t, line, "path=/files")
	assert.Contains(t, line, "status=201")
	assert.Contains(t, line, "bytes=5")
}

func TestRequestLoggerDefaultStatus(t *testing.T) {
	// A handler that writes without calling WriteHeader should log 200.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	wrapped := RequestLogger(logger)(handler)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	wrapped.ServeHTTP(rr, req)

	assert.Contains(t, buf.String(), "status=200")
}

func TestRequestLoggerIncludesRequestID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	wrapped := chimiddleware.RequestID(RequestLogger(logger)(handler))

	req := httptest.NewRequest("GET", "/files", nil)
	rr := httptest.NewRecorder()

	wrapped.ServeHTTP(rr, req)

	assert.Contains(t, buf.String(), "request_id=")
	assert.NotContains(t, buf.String(), `request_id=""`)
}
