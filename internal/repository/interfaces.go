// Package repository はデータ永続化のインターフェースを定義する。
//
// 本サービスは読み取り専用で、レコードの作成・更新は外部の収集パイプラインと認証基盤が行う。
package repository

import (
	"context"

	"github.com/hitoshi/reelscope/internal/model"
)

// CreatorRepository はクリエイタープロフィールの取得インターフェース。
type CreatorRepository interface {
	// FindByPlatformAndUsername はプラットフォームとユーザー名でプロフィールを取得する。
	// usernameは大文字小文字を区別せずに照合する。見つからない場合はnilを返す。
	FindByPlatformAndUsername(ctx context.Context, platform model.Platform, username string) (*model.CreatorProfile, error)
}

// VideoRepository は動画データの取得インターフェース。
type VideoRepository interface {
	// ListByCreator はクリエイターの動画をquery.OrderBy/Directionの順に最大query.Limit件返す。
	// エンゲージメント率はカウントから算出した値で並べる。同値はposted_at降順、id昇順。
	ListByCreator(ctx context.Context, creatorID string, query model.VideoQuery) ([]model.Video, error)

	// ListMetrics はクリエイターの全動画について統計計算用の生データを返す。
	// 件数上限は適用しない。
	ListMetrics(ctx context.Context, creatorID string) ([]model.VideoMetrics, error)
}

// SubscriptionRepository はユーザーの課金契約の取得インターフェース。
type SubscriptionRepository interface {
	// FindByUserID はユーザーの契約を取得する。契約が存在しない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Subscription, error)
}

// SessionRepository はセッションデータの取得インターフェース。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}
