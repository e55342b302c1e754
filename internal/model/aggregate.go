package model

import "time"

// PostingFrequency は投稿頻度（週あたり・月あたりの投稿数）を表す。
type PostingFrequency struct {
	PerWeek  float64
	PerMonth float64
}

// EngagementSummary はエンゲージメント率の分布を表す。
type EngagementSummary struct {
	Average float64
	Median  float64
	Min     float64
	Max     float64
}

// AggregateStats はクリエイターの全動画履歴から算出する統計値。
// 表示件数の上限とは無関係に、常に全履歴から再計算される。
type AggregateStats struct {
	VideoCount       int
	TotalViews       int64
	TotalLikes       int64
	TotalComments    int64
	TotalShares      int64 // 公開されている動画のみ合算
	Engagement       EngagementSummary
	PostingFrequency PostingFrequency
}

// CreatorAggregate はクリエイター集計APIの結果。
type CreatorAggregate struct {
	Profile        *CreatorProfile
	Videos         []Video
	Stats          AggregateStats
	Freshness      FreshnessState
	CacheTimestamp *time.Time
	VideoLimit     int
}
