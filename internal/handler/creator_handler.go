package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/reelscope/internal/creator"
	"github.com/hitoshi/reelscope/internal/middleware"
	"github.com/hitoshi/reelscope/internal/model"
)

// CreatorServiceInterface はクリエイターハンドラーが必要とするサービスインターフェース。
type CreatorServiceInterface interface {
	// GetCreator はクリエイターの集約結果をレスポンス型で返す。
	GetCreator(ctx context.Context, req creator.Request) (*creatorResponse, error)
}

// CreatorHandler はクリエイター集約のHTTPハンドラー。
type CreatorHandler struct {
	service CreatorServiceInterface
	timeout time.Duration
}

// NewCreatorHandler はCreatorHandlerを生成する。
// timeoutが正の場合、サービス呼び出しにその期限を設定する。
func NewCreatorHandler(service CreatorServiceInterface, timeout time.Duration) *CreatorHandler {
	return &CreatorHandler{
		service: service,
		timeout: timeout,
	}
}

// GetCreator はクリエイターのプロフィール・動画・統計・鮮度を返す。
// GET /api/creators/{platform}/{username}?order_by=...&direction=...
//
// 未ログインでも利用でき、動画件数はログイン状態と契約に応じて制限される。
func (h *CreatorHandler) GetCreator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	query := r.URL.Query()
	req := creator.Request{
		Platform:  chi.URLParam(r, "platform"),
		Username:  chi.URLParam(r, "username"),
		UserID:    middleware.OptionalUserID(ctx),
		OrderBy:   model.VideoOrderField(query.Get("order_by")),
		Direction: model.OrderDirection(query.Get("direction")),
	}

	resp, err := h.service.GetCreator(ctx, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// 閲覧者ごとに動画件数が異なるため共有キャッシュさせない
	w.Header().Set("Cache-Control", "private, no-store")
	writeJSON(w, http.StatusOK, resp)
}
