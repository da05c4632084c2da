package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/telemetry"
)

func TestRecoveryReturnsEnvelopeAndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	telemetry.SetOutput(&logs)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/analyses/:id", func(c *gin.Context) {
		c.Set(AnalysisIDKey, "a-1")
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/analyses/a-1", nil)
	req.Header.Set("X-Request-Id", "req-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "internal_error" {
		t.Fatalf("unexpected code %q", body.Error.Code)
	}

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry["msg"] != "panic.recovered" {
			continue
		}
		found = true
		if entry["error"] != "boom" || entry["request_id"] != "req-9" || entry["analysis_id"] != "a-1" || entry["route"] != "/analyses/:id" {
			t.Fatalf("unexpected panic log: %v", entry)
		}
	}
	if !found {
		t.Fatalf("expected panic.recovered log, got %s", logs.String())
	}
}
