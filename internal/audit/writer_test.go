package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriterLogsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(log.New(&buf, "", 0))
	meta := json.RawMessage(`{"format":"csv"}`)
	if err := w.Log(context.Background(), Entry{Actor: "shared", Action: "report.export", ResourceType: "report", Metadata: meta}); err != nil {
		t.Fatalf("log: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "audit ") {
		t.Fatalf("unexpected line: %q", line)
	}
	var entry Entry
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "audit ")), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(entry.ID, "audit-") || entry.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", entry)
	}
	if entry.PayloadDigest != DigestJSON(meta) {
		t.Fatalf("expected payload digest, got %q", entry.PayloadDigest)
	}
}

func TestNilWriterReportsError(t *testing.T) {
	var w *Writer
	if err := w.Log(context.Background(), Entry{}); err == nil {
		t.Fatalf("expected error from nil writer")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	if got := ClientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}
	req = httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.5:4000"
	if got := ClientIP(req); got != "192.168.1.5" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/reports/overdue", nil)
	req.Header.Set("X-Real-IP", "172.16.0.9")
	req.Header.Set("User-Agent", "fastrack-test")
	entry := FromRequest(req, "shared", "report.overdue", "report", "r-1", map[string]any{"rows": 2})
	if entry.IP != "172.16.0.9" || entry.UserAgent != "fastrack-test" {
		t.Fatalf("unexpected caller fields: %+v", entry)
	}
	if string(entry.Metadata) != `{"rows":2}` {
		t.Fatalf("unexpected metadata %s", entry.Metadata)
	}
	if empty := FromRequest(nil, "", "auth.login", "session", "", nil); empty.Metadata != nil || empty.IP != "" {
		t.Fatalf("unexpected entry without request: %+v", empty)
	}
}
