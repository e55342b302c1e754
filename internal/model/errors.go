// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind は呼び出し側が分岐に使うエラー種別を表す。
// 文字列マッチングなしで「データなし」と「一時的に取得不能」を区別できるようにする。
type ErrorKind int

const (
	// KindUnknown は分類されていないエラー。
	KindUnknown ErrorKind = iota
	// KindInputInvalid は不正なプラットフォーム・ユーザー名・件数指定。ストアアクセス前に検出される。
	KindInputInvalid
	// KindNotFound はクリエイタープロフィールが存在しないことを表す。
	KindNotFound
	// KindUpstreamUnavailable はプロフィール・動画・サブスクリプションストアに到達できないことを表す。
	KindUpstreamUnavailable
)

// String はErrorKindの名前を返す。
func (k ErrorKind) String() string {
	switch k {
	case KindInputInvalid:
		return "input_invalid"
	case KindNotFound:
		return "not_found"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, creator, system
	Action   string // ユーザー向け対処方法

	kind  ErrorKind
	cause error // ログ用。レスポンスには含めない
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *APIError) Unwrap() error {
	return e.cause
}

// Kind はエラー種別を返す。
func (e *APIError) Kind() ErrorKind {
	return e.kind
}

// KindOf はエラーチェーンからAPIErrorを探し、その種別を返す。
// APIErrorを含まない場合はKindUnknownを返す。
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.kind
	}
	return KindUnknown
}

// 定義済みエラーコード
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeCreatorNotFound     = "CREATOR_NOT_FOUND"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// NewInvalidInputError は入力値エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "プラットフォーム（tiktok, instagram, youtube）とユーザー名を確認してください。",
		kind:     KindInputInvalid,
	}
}

// NewCreatorNotFoundError はクリエイター未検出エラーを生成する。
func NewCreatorNotFoundError(platform Platform, username string) *APIError {
	return &APIError{
		Code:     ErrCodeCreatorNotFound,
		Message:  fmt.Sprintf("クリエイターが見つかりません: %s/%s", platform, username),
		Category: "creator",
		Action:   "ユーザー名を確認するか、データ収集が完了するまでお待ちください。",
		kind:     KindNotFound,
	}
}

// NewUpstreamUnavailableError はストア到達不能エラーを生成する。
// causeはログ出力用に保持し、Messageには含めない。
func NewUpstreamUnavailableError(source string, cause error) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  "データを一時的に取得できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
		kind:     KindUpstreamUnavailable,
		cause:    fmt.Errorf("%s: %w", source, cause),
	}
}
