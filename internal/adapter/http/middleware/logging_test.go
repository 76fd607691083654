package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestLoggingMiddlewareAttachesRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&logs))

	handler := chimiddleware.RequestID(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusCreated)
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/banks", nil))

	lines := bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected handler line and access line, got %q", logs.String())
	}

	var inner, access map[string]any
	if err := json.Unmarshal(lines[0], &inner); err != nil {
		t.Fatalf("bad log line: %v", err)
	}
	if err := json.Unmarshal(lines[1], &access); err != nil {
		t.Fatalf("bad log line: %v", err)
	}

	if inner["request_id"] == nil || inner["request_id"] != access["request_id"] {
		t.Fatalf("expected both lines to carry the request id, got %v and %v", inner, access)
	}
	if access["status"] != float64(http.StatusCreated) || access["message"] != "request completed" {
		t.Fatalf("unexpected access line %v", access)
	}
}
