package freshness

import (
	"testing"
	"time"

	"github.com/hitoshi/reelscope/internal/model"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name          string
		lastScrapedAt *time.Time
		want          model.FreshnessState
	}{
		{"未収集", nil, model.FreshnessNeverScraped},
		{"直後", at(0), model.FreshnessFresh},
		{"47時間前", at(47 * time.Hour), model.FreshnessFresh},
		{"ちょうど48時間前", at(48 * time.Hour), model.FreshnessFresh},
		{"48時間1分前", at(48*time.Hour + time.Minute), model.FreshnessStale},
		{"49時間前", at(49 * time.Hour), model.FreshnessStale},
		{"未来の収集日時", at(-time.Hour), model.FreshnessFresh},
	}

	c := NewClassifier(DefaultStaleAfter)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.lastScrapedAt, now); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestClassify_ZeroValueUsesDefault はゼロ値のClassifierが既定の48時間で判定することを検証する。
func TestClassify_ZeroValueUsesDefault(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Add(-47 * time.Hour)

	var c Classifier
	if got := c.Classify(&ts, now); got != model.FreshnessFresh {
		t.Errorf("Classify() = %q, want %q", got, model.FreshnessFresh)
	}
}

func TestClassify_CustomThreshold(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Add(-2 * time.Hour)

	c := NewClassifier(time.Hour)
	if got := c.Classify(&ts, now); got != model.FreshnessStale {
		t.Errorf("Classify() = %q, want %q", got, model.FreshnessStale)
	}
}
