package handler

import "time"

// creatorResponse はクリエイター集約のAPIレスポンス。
type creatorResponse struct {
	Profile        profileResponse `json:"profile"`
	Videos         []videoResponse `json:"videos"`
	Stats          statsResponse   `json:"stats"`
	Freshness      string          `json:"freshness"`
	CacheTimestamp *time.Time      `json:"cache_timestamp"`
	VideoLimit     int             `json:"video_limit"`
}

// profileResponse はクリエイタープロフィールのレスポンス。
type profileResponse struct {
	ID             string     `json:"id"`
	Platform       string     `json:"platform"`
	Username       string     `json:"username"`
	DisplayName    string     `json:"display_name"`
	Bio            string     `json:"bio"`
	AvatarURL      string     `json:"avatar_url"`
	FollowerCount  int64      `json:"follower_count"`
	FollowingCount int64      `json:"following_count"`
	Verified       bool       `json:"verified"`
	LastScrapedAt  *time.Time `json:"last_scraped_at"`
}

// videoResponse は動画1件のレスポンス。
// share_countはプラットフォームが公開していない場合null。
type videoResponse struct {
	ID              string    `json:"id"`
	Platform        string    `json:"platform"`
	ExternalID      string    `json:"external_id"`
	URL             string    `json:"url"`
	Description     string    `json:"description"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
	ShareCount      *int64    `json:"share_count"`
	EngagementRate  float64   `json:"engagement_rate"`
	PostedAt        time.Time `json:"posted_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

type statsResponse struct {
	VideoCount       int                       `json:"video_count"`
	TotalViews       int64                     `json:"total_views"`
	TotalLikes       int64                     `json:"total_likes"`
	TotalComments    int64                     `json:"total_comments"`
	TotalShares      int64                     `json:"total_shares"`
	Engagement       engagementResponse       `json:"engagement"`
	PostingFrequency postingFrequencyResponse `json:"posting_frequency"`
}

type engagementResponse struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

type postingFrequencyResponse struct {
	PerWeek  float64 `json:"per_week"`
	PerMonth float64 `json:"per_month"`
}
