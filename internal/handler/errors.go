package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/reelscope/internal/middleware"
	"github.com/hitoshi/reelscope/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// 原因エラーはログにのみ出力し、レスポンスには含めない。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.RequestIDFromContext(r.Context())

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		if statusCode >= http.StatusInternalServerError {
			slog.Error("upstream unavailable",
				slog.String("request_id", requestID),
				slog.String("error", errorDetail(apiErr)),
			)
		}
		middleware.WriteErrorResponse(w, statusCode, apiErr)
		return
	}

	// 呼び出し元の切断・期限切れは一般的な失敗として扱う
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("request aborted",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("request_id", requestID),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// errorDetail はログ用に原因エラーを含む文字列を返す。
func errorDetail(apiErr *model.APIError) string {
	if cause := apiErr.Unwrap(); cause != nil {
		return apiErr.Error() + ": " + cause.Error()
	}
	return apiErr.Error()
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case model.ErrCodeCreatorNotFound:
		return http.StatusNotFound
	case model.ErrCodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case middleware.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
