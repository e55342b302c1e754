package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestStatusMiddleware_RecordsStatus はハンドラーが書き込んだステータスが記録されることを検証する。
func TestStatusMiddleware_RecordsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	h := StatusMiddleware(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusInternalServerError) // 2回目は無視される
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	m := findFamily(t, reg, "reelscope_http_status_total").GetMetric()
	if len(m) != 1 || labelValue(m[0], "status_code") != "404" {
		t.Errorf("expected only status_code=404 to be recorded, got %v", m)
	}
}

// TestStatusMiddleware_ImplicitOK はWriteHeaderなしの書き込みが200として記録されることを検証する。
func TestStatusMiddleware_ImplicitOK(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	h := StatusMiddleware(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	m := findFamily(t, reg, "reelscope_http_status_total").GetMetric()
	if labelValue(m[0], "status_code") != "200" {
		t.Errorf("status_code = %s, want 200", labelValue(m[0], "status_code"))
	}
}
