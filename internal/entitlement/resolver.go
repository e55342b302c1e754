// Package entitlement はユーザーが閲覧できる動画件数の上限を契約状態から決定する。
package entitlement

import (
	"context"
	"log/slog"

	"github.com/hitoshi/reelscope/internal/model"
	"github.com/hitoshi/reelscope/internal/repository"
)

// DefaultAnonymousLimit は未ログイン時の動画件数上限。
const DefaultAnonymousLimit = 20

// Limits はプランごとの動画件数上限。
type Limits struct {
	Anonymous int // 未ログイン
	Free      int // 無料プラン、または有料プランが無効な状態
	Paid      int // 有料プランが有効な状態
}

// DefaultLimits はデフォルトの上限を返す。
func DefaultLimits() Limits {
	return Limits{
		Anonymous: DefaultAnonymousLimit,
		Free:      20,
		Paid:      200,
	}
}

// Resolver はユーザーの動画件数上限を決定する。
type Resolver struct {
	subRepo repository.SubscriptionRepository
	limits  Limits
}

// NewResolver はResolverを生成する。
func NewResolver(subRepo repository.SubscriptionRepository, limits Limits) *Resolver {
	return &Resolver{
		subRepo: subRepo,
		limits:  limits,
	}
}

// ResolveLimit はユーザーの動画件数上限を返す。
//
//   - userIDがnilの場合は契約ストアを参照せず匿名上限を返す
//   - 契約レコードがない場合は無料プラン扱い
//   - 有料プランでcanceled、past_due等の場合も無料プラン扱い
//
// 契約ストアに到達できない場合のみKindUpstreamUnavailableのエラーを返す。
func (r *Resolver) ResolveLimit(ctx context.Context, userID *string) (int, error) {
	if userID == nil {
		return r.limits.Anonymous, nil
	}

	sub, err := r.subRepo.FindByUserID(ctx, *userID)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		slog.Error("failed to load subscription",
			slog.String("user_id", *userID),
			slog.String("error", err.Error()),
		)
		return 0, model.NewUpstreamUnavailableError("subscription store", err)
	}

	if sub.IsPaidActive() {
		return r.limits.Paid, nil
	}
	return r.limits.Free, nil
}
