package model

import "strings"

// Platform はショート動画プラットフォームを表す。
type Platform string

const (
	// PlatformTikTok はTikTok。
	PlatformTikTok Platform = "tiktok"
	// PlatformInstagram はInstagram（リール）。
	PlatformInstagram Platform = "instagram"
	// PlatformYouTube はYouTube（ショート）。
	PlatformYouTube Platform = "youtube"
)

// Platforms はサポートするプラットフォームの一覧。
var Platforms = []Platform{PlatformTikTok, PlatformInstagram, PlatformYouTube}

// ParsePlatform は文字列をPlatformに変換する。大文字小文字は区別しない。
// サポート外の値はKindInputInvalidのエラーを返す。
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", NewInvalidInputError("サポートされていないプラットフォームです: " + s)
	}
	return p, nil
}

// Valid はサポート対象のプラットフォームかどうかを返す。
func (p Platform) Valid() bool {
	for _, v := range Platforms {
		if p == v {
			return true
		}
	}
	return false
}
