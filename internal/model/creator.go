package model

import "time"

// CreatorProfile は追跡対象のクリエイターアカウントを表す。
// 外部の収集パイプラインが作成・更新し、本サービスからは読み取り専用。
// (platform, username) は一意。usernameは小文字で保存される。
type CreatorProfile struct {
	ID             string
	Platform       Platform
	Username       string
	DisplayName    string
	Bio            string
	AvatarURL      string
	FollowerCount  int64
	FollowingCount int64
	Verified       bool
	LastScrapedAt  *time.Time // 未収集の場合はnil
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FreshnessState はキャッシュされたクリエイターデータの鮮度を表す。
type FreshnessState string

const (
	// FreshnessFresh は閾値以内に収集済み。
	FreshnessFresh FreshnessState = "fresh"
	// FreshnessStale は閾値を超えて更新されていない。
	FreshnessStale FreshnessState = "stale"
	// FreshnessNeverScraped は一度も収集されていない。
	FreshnessNeverScraped FreshnessState = "never-scraped"
)
