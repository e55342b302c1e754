package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/reelscope/internal/creator"
	"github.com/hitoshi/reelscope/internal/entitlement"
	"github.com/hitoshi/reelscope/internal/freshness"
	"github.com/hitoshi/reelscope/internal/metrics"
	"github.com/hitoshi/reelscope/internal/middleware"
	"github.com/hitoshi/reelscope/internal/model"
	"github.com/hitoshi/reelscope/internal/security"
	"github.com/hitoshi/reelscope/internal/stats"
	"github.com/hitoshi/reelscope/internal/video"
)

// --- インメモリストア ---

type memCreatorRepo struct {
	profiles map[string]*model.CreatorProfile
}

func (m *memCreatorRepo) FindByPlatformAndUsername(ctx context.Context, platform model.Platform, username string) (*model.CreatorProfile, error) {
	return m.profiles[string(platform)+"/"+username], nil
}

type memVideoRepo struct {
	videos map[string][]model.Video
}

func (m *memVideoRepo) ListByCreator(ctx context.Context, creatorID string, query model.VideoQuery) ([]model.Video, error) {
	vs := append([]model.Video(nil), m.videos[creatorID]...)
	video.SortVideos(vs, query.OrderBy, query.Direction)
	if len(vs) > query.Limit {
		vs = vs[:query.Limit]
	}
	return vs, nil
}

func (m *memVideoRepo) ListMetrics(ctx context.Context, creatorID string) ([]model.VideoMetrics, error) {
	vs := m.videos[creatorID]
	out := make([]model.VideoMetrics, len(vs))
	for i, v := range vs {
		out[i] = v.Metrics()
	}
	return out, nil
}

type memSubscriptionRepo struct {
	subs map[string]*model.Subscription
}

func (m *memSubscriptionRepo) FindByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	return m.subs[userID], nil
}

type memSessionRepo struct {
	sessions map[string]*model.Session
}

func (m *memSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.sessions[id], nil
}

// --- テスト用ルーター ---

const (
	paidSessionID = "5b0e9c55-3b8a-4d52-9a4e-0d6f1f3f6a01"
	freeSessionID = "5b0e9c55-3b8a-4d52-9a4e-0d6f1f3f6a02"
)

var routerNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	handler  http.Handler
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, rlConfig middleware.RateLimiterConfig) *testServer {
	t.Helper()

	scraped := routerNow.Add(-72 * time.Hour)
	creators := &memCreatorRepo{profiles: map[string]*model.CreatorProfile{
		"tiktok/alice":   {ID: "c-alice", Platform: model.PlatformTikTok, Username: "alice", DisplayName: "Alice", LastScrapedAt: &scraped},
		"youtube/newbie": {ID: "c-newbie", Platform: model.PlatformYouTube, Username: "newbie"},
	}}
	vids := make([]model.Video, 30)
	for i := range vids {
		vids[i] = model.Video{
			ID:           fmt.Sprintf("v%02d", i),
			CreatorID:    "c-alice",
			Platform:     model.PlatformTikTok,
			URL:          "https://www.tiktok.com/@alice/video/" + fmt.Sprint(i),
			ViewCount:    int64(1000 + i),
			LikeCount:    int64(i * 3),
			CommentCount: int64(i),
			PostedAt:     routerNow.Add(-time.Duration(i) * 24 * time.Hour),
		}
	}
	videos := &memVideoRepo{videos: map[string][]model.Video{"c-alice": vids}}
	subs := &memSubscriptionRepo{subs: map[string]*model.Subscription{
		"user-paid": {UserID: "user-paid", Tier: model.TierPaid, Status: model.StatusActive},
		"user-free": {UserID: "user-free", Tier: model.TierFree, Status: model.StatusActive},
	}}
	sessions := &memSessionRepo{sessions: map[string]*model.Session{
		paidSessionID: {ID: paidSessionID, UserID: "user-paid", ExpiresAt: routerNow.Add(time.Hour)},
		freeSessionID: {ID: freeSessionID, UserID: "user-free", ExpiresAt: routerNow.Add(time.Hour)},
	}}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	svc := creator.NewService(
		creators,
		entitlement.NewResolver(subs, entitlement.DefaultLimits()),
		video.NewSelector(videos),
		stats.NewAggregator(videos),
		freshness.NewClassifier(freshness.DefaultStaleAfter),
		creator.ServiceConfig{Now: func() time.Time { return routerNow }, Recorder: collector},
	)

	rl := middleware.NewRateLimiter(rlConfig)
	t.Cleanup(rl.Stop)

	h := NewRouter(&RouterDeps{
		SessionFinder:     sessions,
		CORSAllowedOrigin: "https://app.example.com",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Metrics:           collector,
		MetricsGatherer:   reg,
		CreatorService:    NewCreatorServiceAdapter(svc, security.NewContentSanitizer()),
		RequestTimeout:    5 * time.Second,
	})
	return &testServer{handler: h, registry: reg}
}

func (s *testServer) get(t *testing.T, path, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeCreator(t *testing.T, rec *httptest.ResponseRecorder) creatorResponse {
	t.Helper()
	var resp creatorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

// --- テスト ---

func TestRouter_GetCreator_VideoLimitByViewer(t *testing.T) {
	srv := newTestServer(t, middleware.DefaultRateLimiterConfig())

	tests := []struct {
		name      string
		sessionID string
		wantLimit int
		wantCount int
	}{
		{"anonymous", "", 20, 20},
		{"free user", freeSessionID, 20, 20},
		{"paid user", paidSessionID, 200, 30},
		{"unknown session falls back to anonymous", "5b0e9c55-3b8a-4d52-9a4e-0d6f1f3f6aff", 20, 20},
		{"malformed session falls back to anonymous", "not-a-uuid", 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.get(t, "/api/creators/tiktok/alice", tt.sessionID)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			resp := decodeCreator(t, rec)
			if resp.VideoLimit != tt.wantLimit {
				t.Errorf("video_limit = %d, want %d", resp.VideoLimit, tt.wantLimit)
			}
			if len(resp.Videos) != tt.wantCount {
				t.Errorf("len(videos) = %d, want %d", len(resp.Videos), tt.wantCount)
			}
			// 統計は件数上限と無関係に全履歴から算出される
			if resp.Stats.VideoCount != 30 {
				t.Errorf("stats.video_count = %d, want 30", resp.Stats.VideoCount)
			}
			if resp.Freshness != string(model.FreshnessStale) {
				t.Errorf("freshness = %q, want stale", resp.Freshness)
			}
		})
	}
}

func TestRouter_GetCreator_NormalizesUsername(t *testing.T) {
	srv := newTestServer(t, middleware.DefaultRateLimiterConfig())

	rec := srv.get(t, "/api/creators/TikTok/@Alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if resp := decodeCreator(t, rec); resp.Profile.Username != "alice" {
		t.Errorf("username = %q, want alice", resp.Profile.Username)
	}
}

func TestRouter_GetCreator_VideosSortedByEngagement(t *testing.T) {
	srv := newTestServer(t, middleware.DefaultRateLimiterConfig())

	resp := decodeCreator(t, srv.get(t, "/api/creators/tiktok/alice", paidSessionID))
	for i := 1; i < len(resp.Videos); i++ {
		if resp.Videos[i-1].EngagementRate < resp.Videos[i].EngagementRate {
			t.Fatalf("videos not sorted desc at %d: %v < %v", i, resp.Videos[i-1].EngagementRate, resp.Videos[i].EngagementRate)
		}
	}
}

func TestRouter_GetCreator_NeverScraped(t *testing.T) {
	srv := newTestServer(t, middleware.DefaultRateLimiterConfig())

	rec := srv.get(t, "/api/creators/youtube/newbie", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"videos":[]`) {
		t.Errorf("videos should encode as empty array: %s", body)
	}
	if !strings.Contains(body, `"cache_timestamp":null`) {
		t.Errorf("cache_timestamp should be null: %s", body)
	}
	if !strings.Contains(body, `"freshness":"never-scraped"`) {
		t.Errorf("freshness should be never-scraped: %s", body)
	}
}

func TestRouter_GetCreator_ErrorStatuses(t *testing.T) {
	srv := newTestServer(t, middleware.DefaultRateLimiterConfig())

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"unknown platform", "/api/creators/myspace/alice", http.StatusBadRequest},
		{"invalid username", "/api/creators/tiktok/al%20ice", http.StatusBadRequest},
		{"invalid order", "/api/creators/tiktok/alice?order_by=random", http.StatusBadRequest},
		{"invalid direction", "/api/creators/tiktok/alice?direction=sideways", http.StatusBadRequest},
		{"missing creator", "/api/creators/tiktok/ghost", http.StatusNotFound},
		{"unknown route", "/api/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.get(t, tt.path, "")
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestRouter_SetsCommonHeaders(t *testing.T) {
	srv := newTestServer(t, middleware.DefaultRateLimiterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/creators/tiktok/alice", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be set")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should be set")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_RateLimitAppliesToAPIOnly(t *testing.T) {
	srv := newTestServer(t, middleware.RateLimiterConfig{Rate: 0.001, Burst: 2, CleanupInterval: time.Minute})

	for i := 0; i < 2; i++ {
		if rec := srv.get(t, "/api/creators/tiktok/alice", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := srv.get(t, "/api/creators/tiktok/alice", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After should be set")
	}

	// ログインユーザーは別枠
	if rec := srv.get(t, "/api/creators/tiktok/alice", paidSessionID); rec.Code != http.StatusOK {
		t.Errorf("logged-in user status = %d, want 200", rec.Code)
	}
	// 運用エンドポイントは制限対象外
	for i := 0; i < 3; i++ {
		if rec := srv.get(t, "/health", ""); rec.Code != http.StatusOK {
			t.Errorf("/health status = %d, want 200", rec.Code)
		}
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, middleware.DefaultRateLimiterConfig())

	srv.get(t, "/api/creators/tiktok/alice", "")
	srv.get(t, "/api/creators/tiktok/ghost", "")

	rec := srv.get(t, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`reelscope_aggregations_total{outcome="ok",platform="tiktok"} 1`,
		`reelscope_aggregations_total{outcome="not_found",platform="tiktok"} 1`,
		`reelscope_video_limit_total{limit="20"} 1`,
		`reelscope_http_status_total{status_code="200"} 1`,
		`reelscope_http_status_total{status_code="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}

func TestRouter_WithoutMetricsGatherer_NoMetricsRoute(t *testing.T) {
	h := NewRouter(&RouterDeps{
		CreatorService: &mockCreatorService{},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
