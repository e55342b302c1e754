package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/reelscope/internal/model"
)

// PostgresSubscriptionRepo はPostgreSQLを使用した課金契約リポジトリ。
type PostgresSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

// FindByUserID はユーザーの契約を取得する。契約が存在しない場合はnilを返す。
func (r *PostgresSubscriptionRepo) FindByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	sub := &model.Subscription{}
	var tier, status string
	var periodEnd sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, tier, status, current_period_end, created_at, updated_at
		 FROM user_subscriptions WHERE user_id = $1`,
		userID,
	).Scan(&sub.UserID, &tier, &status, &periodEnd, &sub.CreatedAt, &sub.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("契約情報の取得に失敗しました: %w", err)
	}

	sub.Tier = model.SubscriptionTier(tier)
	sub.Status = model.SubscriptionStatus(status)
	if periodEnd.Valid {
		t := periodEnd.Time
		sub.CurrentPeriodEnd = &t
	}

	return sub, nil
}

// compile-time interface check
var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
