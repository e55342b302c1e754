// Package freshness はプロフィールの最終収集日時から鮮度を判定する。
package freshness

import (
	"time"

	"github.com/hitoshi/reelscope/internal/model"
)

// DefaultStaleAfter は最終収集からstaleとみなすまでの既定期間。
const DefaultStaleAfter = 48 * time.Hour

// Classifier は鮮度判定器。
type Classifier struct {
	// StaleAfter を超えて経過したデータをstaleとする。0以下の場合はDefaultStaleAfterを使う。
	StaleAfter time.Duration
}

// NewClassifier はClassifierを生成する。
func NewClassifier(staleAfter time.Duration) *Classifier {
	return &Classifier{StaleAfter: staleAfter}
}

// Classify はlastScrapedAtとnowから鮮度を返す。
//
// 未収集（nil）はnever-scraped、経過時間がStaleAfterちょうどまではfresh、
// それを超えるとstaleになる。収集日時が未来の場合はfreshとして扱う。
func (c *Classifier) Classify(lastScrapedAt *time.Time, now time.Time) model.FreshnessState {
	if lastScrapedAt == nil {
		return model.FreshnessNeverScraped
	}

	threshold := c.StaleAfter
	if threshold <= 0 {
		threshold = DefaultStaleAfter
	}

	if now.Sub(*lastScrapedAt) > threshold {
		return model.FreshnessStale
	}
	return model.FreshnessFresh
}
