package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/reelscope/internal/model"
)

// engagementRateExpr はカウントからエンゲージメント率を算出するSQL式。
// 保存済みのengagement_rateカラムは参照しない。
const engagementRateExpr = `CASE WHEN view_count = 0 THEN 0
	ELSE (like_count + comment_count)::double precision / view_count * 100 END`

// orderColumns は並び替えキーとSQL式の対応。ユーザー入力を直接SQLに埋め込まないための許可リスト。
var orderColumns = map[model.VideoOrderField]string{
	model.OrderByEngagementRate: engagementRateExpr,
	model.OrderByPostedAt:       "posted_at",
	model.OrderByViews:          "view_count",
	model.OrderByLikes:          "like_count",
	model.OrderByComments:       "comment_count",
}

// PostgresVideoRepo はPostgreSQLを使用した動画リポジトリ。
type PostgresVideoRepo struct {
	db *sql.DB
}

// NewPostgresVideoRepo はPostgresVideoRepoを生成する。
func NewPostgresVideoRepo(db *sql.DB) *PostgresVideoRepo {
	return &PostgresVideoRepo{db: db}
}

// ListByCreator はクリエイターの動画を指定順に最大query.Limit件返す。
func (r *PostgresVideoRepo) ListByCreator(ctx context.Context, creatorID string, query model.VideoQuery) ([]model.Video, error) {
	orderSQL, err := buildVideoOrderClause(query)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, creator_id, platform, external_id, url, description, thumbnail_url,
		        view_count, like_count, comment_count, share_count, posted_at, duration_seconds
		 FROM videos
		 WHERE creator_id = $1
		 ORDER BY `+orderSQL+`
		 LIMIT $2`,
		creatorID, query.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("動画一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	videos := make([]model.Video, 0, query.Limit)
	for rows.Next() {
		var v model.Video
		var platform string
		var shareCount sql.NullInt64
		if err := rows.Scan(
			&v.ID, &v.CreatorID, &platform, &v.ExternalID, &v.URL, &v.Description, &v.ThumbnailURL,
			&v.ViewCount, &v.LikeCount, &v.CommentCount, &shareCount, &v.PostedAt, &v.DurationSeconds,
		); err != nil {
			return nil, fmt.Errorf("動画行の読み取りに失敗しました: %w", err)
		}
		v.Platform = model.Platform(platform)
		if shareCount.Valid {
			n := shareCount.Int64
			v.ShareCount = &n
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("動画一覧の走査に失敗しました: %w", err)
	}
	return videos, nil
}

// ListMetrics はクリエイターの全動画の統計用データを返す。
func (r *PostgresVideoRepo) ListMetrics(ctx context.Context, creatorID string) ([]model.VideoMetrics, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT view_count, like_count, comment_count, share_count, posted_at
		 FROM videos WHERE creator_id = $1`,
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("動画統計データの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var metrics []model.VideoMetrics
	for rows.Next() {
		var m model.VideoMetrics
		var shareCount sql.NullInt64
		if err := rows.Scan(&m.ViewCount, &m.LikeCount, &m.CommentCount, &shareCount, &m.PostedAt); err != nil {
			return nil, fmt.Errorf("動画統計行の読み取りに失敗しました: %w", err)
		}
		if shareCount.Valid {
			n := shareCount.Int64
			m.ShareCount = &n
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("動画統計データの走査に失敗しました: %w", err)
	}
	return metrics, nil
}

// buildVideoOrderClause はORDER BY句を組み立てる。
// 主キーの後にposted_at降順、id昇順を付けて結果順を一意にする。
func buildVideoOrderClause(query model.VideoQuery) (string, error) {
	col, ok := orderColumns[query.OrderBy]
	if !ok {
		return "", fmt.Errorf("未対応の並び替えキーです: %q", query.OrderBy)
	}
	dir := "DESC"
	switch query.Direction {
	case model.OrderAsc:
		dir = "ASC"
	case model.OrderDesc:
	default:
		return "", fmt.Errorf("未対応の並び順です: %q", query.Direction)
	}

	clause := "(" + col + ") " + dir
	if query.OrderBy != model.OrderByPostedAt {
		clause += ", posted_at DESC"
	}
	return clause + ", id ASC", nil
}

// compile-time interface check
var _ VideoRepository = (*PostgresVideoRepo)(nil)
