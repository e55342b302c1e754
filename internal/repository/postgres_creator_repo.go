package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/reelscope/internal/model"
)

// PostgresCreatorRepo はPostgreSQLを使用したクリエイタープロフィールリポジトリ。
type PostgresCreatorRepo struct {
	db *sql.DB
}

// NewPostgresCreatorRepo はPostgresCreatorRepoを生成する。
func NewPostgresCreatorRepo(db *sql.DB) *PostgresCreatorRepo {
	return &PostgresCreatorRepo{db: db}
}

// FindByPlatformAndUsername はプラットフォームとユーザー名でプロフィールを取得する。見つからない場合はnilを返す。
// lower(username)のユニークインデックスを使用する。
func (r *PostgresCreatorRepo) FindByPlatformAndUsername(ctx context.Context, platform model.Platform, username string) (*model.CreatorProfile, error) {
	p := &model.CreatorProfile{}
	var platformVal string
	var lastScrapedAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, platform, username, display_name, bio, avatar_url,
		        follower_count, following_count, verified, last_scraped_at,
		        created_at, updated_at
		 FROM creator_profiles
		 WHERE platform = $1 AND lower(username) = $2`,
		string(platform), strings.ToLower(username),
	).Scan(
		&p.ID, &platformVal, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL,
		&p.FollowerCount, &p.FollowingCount, &p.Verified, &lastScrapedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("クリエイタープロフィールの取得に失敗しました: %w", err)
	}

	p.Platform = model.Platform(platformVal)
	if lastScrapedAt.Valid {
		t := lastScrapedAt.Time
		p.LastScrapedAt = &t
	}

	return p, nil
}

// compile-time interface check
var _ CreatorRepository = (*PostgresCreatorRepo)(nil)
