package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level, false)
		if err != nil {
			t.Fatalf("New(%q): %v", level, err)
		}
		if logger == nil {
			t.Fatalf("New(%q) returned nil logger", level)
		}
	}
}

func TestNewDevelopment(t *testing.T) {
	logger, err := New("debug", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !logger.Core().Enabled(-1) {
		t.Error("expected debug level enabled")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("verbose", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(AccessLog(logger))
	r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for _, path := range []string{"/jobs/42", "/boom", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	first := entries[0].ContextMap()
	if first["route"] != "/jobs/{id}" || first["status"] != int64(200) || first["bytes"] != int64(2) {
		t.Errorf("first entry = %v", first)
	}
	if first["request_id"] == "" {
		t.Error("request id should be logged")
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("5xx should log at error, got %v", entries[1].Level)
	}
	if got := entries[2].ContextMap()["status"]; got != int64(404) {
		t.Errorf("unmatched status = %v", got)
	}
}
