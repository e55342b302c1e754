package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

type loggedRequest struct {
	entry     map[string]any
	rec       *httptest.ResponseRecorder
	requestID string // ハンドラーから見えたリクエストID
}

// serveLogged はロギングミドルウェア越しにリクエストを1件処理し、出力されたログを返す。
func serveLogged(t *testing.T, req *http.Request, inner http.HandlerFunc) loggedRequest {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var out loggedRequest
	h := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out.requestID = RequestIDFromContext(r.Context())
		inner(w, r)
	}))
	out.rec = httptest.NewRecorder()
	h.ServeHTTP(out.rec, req)

	if err := json.Unmarshal(buf.Bytes(), &out.entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return out
}

func statusHandler(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(code) }
}

func newCreatorGet() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/creators/tiktok/alice", nil)
}

func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	got := serveLogged(t, newCreatorGet(), statusHandler(http.StatusOK))

	if got.entry["msg"] != "http_request" {
		t.Errorf("msg = %v", got.entry["msg"])
	}
	if got.entry["method"] != "GET" || got.entry["path"] != "/api/creators/tiktok/alice" {
		t.Errorf("method/path = %v %v", got.entry["method"], got.entry["path"])
	}
	if got.entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", got.entry["status"])
	}
	if d, ok := got.entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v", got.entry["duration_ms"])
	}
	if _, ok := got.entry["user_id"]; ok {
		t.Errorf("user_id should be absent for anonymous request, got %v", got.entry["user_id"])
	}
}

func TestLoggingMiddleware_IncludesUserID(t *testing.T) {
	req := newCreatorGet()
	req = req.WithContext(ContextWithUserID(req.Context(), "user-123"))

	got := serveLogged(t, req, statusHandler(http.StatusOK))
	if got.entry["user_id"] != "user-123" {
		t.Errorf("user_id = %v, want user-123", got.entry["user_id"])
	}
}

func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusTooManyRequests, "WARN"},
		{http.StatusServiceUnavailable, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			got := serveLogged(t, newCreatorGet(), statusHandler(tt.status))
			if got.entry["status"] != float64(tt.status) {
				t.Errorf("status = %v, want %d", got.entry["status"], tt.status)
			}
			if got.entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", got.entry["level"], tt.level)
			}
		})
	}
}

// TestLoggingMiddleware_ImplicitOK はWriteHeaderなしのWriteを200として記録することを検証する。
func TestLoggingMiddleware_ImplicitOK(t *testing.T) {
	got := serveLogged(t, newCreatorGet(), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	if got.entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", got.entry["status"])
	}
	if got.rec.Body.String() != `{}` {
		t.Errorf("body = %q", got.rec.Body.String())
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	incoming := uuid.NewString()
	tests := []struct {
		name     string
		header   string
		wantKeep bool
	}{
		{"generated when absent", "", false},
		{"kept when uuid", incoming, true},
		{"replaced when not uuid", "abc; DROP", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newCreatorGet()
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			got := serveLogged(t, req, statusHandler(http.StatusOK))

			respID := got.rec.Header().Get(RequestIDHeader)
			if _, err := uuid.Parse(respID); err != nil {
				t.Fatalf("response request id %q is not a uuid", respID)
			}
			if tt.wantKeep && respID != tt.header {
				t.Errorf("request id = %q, want %q", respID, tt.header)
			}
			if !tt.wantKeep && respID == tt.header {
				t.Errorf("request id %q should have been replaced", respID)
			}
			if got.requestID != respID || got.entry["request_id"] != respID {
				t.Errorf("context/log request id = %q/%v, want %q", got.requestID, got.entry["request_id"], respID)
			}
		})
	}
}
