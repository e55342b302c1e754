package model

import "time"

// Video はクリエイターに属するショート動画を表す。
// TikTok、Instagramリール、YouTubeショートを同一の型で扱う。
type Video struct {
	ID              string
	CreatorID       string
	Platform        Platform
	ExternalID      string
	URL             string
	Description     string
	ThumbnailURL    string
	ViewCount       int64
	LikeCount       int64
	CommentCount    int64
	ShareCount      *int64  // プラットフォームが公開しない場合はnil
	EngagementRate  float64 // 常にカウントから再計算される
	PostedAt        time.Time
	DurationSeconds int
}

// VideoMetrics は統計計算に必要な動画ごとの生データ。
type VideoMetrics struct {
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	ShareCount   *int64
	PostedAt     time.Time
}

// Metrics は動画から統計計算用の生データを取り出す。
func (v Video) Metrics() VideoMetrics {
	return VideoMetrics{
		ViewCount:    v.ViewCount,
		LikeCount:    v.LikeCount,
		CommentCount: v.CommentCount,
		ShareCount:   v.ShareCount,
		PostedAt:     v.PostedAt,
	}
}

// EngagementRate は (likes + comments) / views * 100 を返す。
// viewsが0以下の場合は0を返し、NaNや無限大を生じさせない。
func EngagementRate(views, likes, comments int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(likes+comments) / float64(views) * 100
}

// VideoOrderField は動画一覧の並び替えキーを表す。
type VideoOrderField string

const (
	OrderByEngagementRate VideoOrderField = "engagement_rate"
	OrderByPostedAt       VideoOrderField = "posted_at"
	OrderByViews          VideoOrderField = "views"
	OrderByLikes          VideoOrderField = "likes"
	OrderByComments       VideoOrderField = "comments"
)

// Valid は既知の並び替えキーかどうかを返す。
func (f VideoOrderField) Valid() bool {
	switch f {
	case OrderByEngagementRate, OrderByPostedAt, OrderByViews, OrderByLikes, OrderByComments:
		return true
	}
	return false
}

// OrderDirection は並び順の方向を表す。
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// Valid は既知の方向かどうかを返す。
func (d OrderDirection) Valid() bool {
	return d == OrderAsc || d == OrderDesc
}

// VideoQuery は動画ストアへの取得条件。
type VideoQuery struct {
	Limit     int
	OrderBy   VideoOrderField
	Direction OrderDirection
}
