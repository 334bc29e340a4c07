package main

import (
	"bytes"
	"database/sql"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fastrack/internal/tracking/infrastructure/postgres"
)

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), logger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/overdue", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	if !strings.HasPrefix(buf.String(), "http GET /api/v1/reports/overdue 418 ") {
		t.Fatalf("unexpected log line %q", buf.String())
	}
}

func TestDBGaugesUseConfiguredTables(t *testing.T) {
	store, err := postgres.NewEventStore(&sql.DB{}, postgres.WithSchema("traza"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	gauges := dbGauges(store)
	if len(gauges) != 2 {
		t.Fatalf("expected 2 gauges, got %d", len(gauges))
	}
	if gauges[0].Query != `SELECT COUNT(*) FROM "traza"."proceso"` {
		t.Fatalf("unexpected query %q", gauges[0].Query)
	}
}
