// Package stats はクリエイターの全動画履歴から統計値を算出する。
//
// 算出は入力順に依存しない。浮動小数点の合算前に全順序でソートし、
// 同じ動画集合からは常にビット単位で同じ結果を返す。
package stats

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/hitoshi/reelscope/internal/model"
	"github.com/hitoshi/reelscope/internal/repository"
)

const (
	day   = 24 * time.Hour
	week  = 7.0
	month = 30.0
)

// Aggregator はクリエイターの統計値を算出する。
type Aggregator struct {
	videoRepo repository.VideoRepository
}

// NewAggregator はAggregatorを生成する。
func NewAggregator(videoRepo repository.VideoRepository) *Aggregator {
	return &Aggregator{videoRepo: videoRepo}
}

// ComputeStats はクリエイターの全動画履歴から統計値を算出する。
// 表示用の件数上限は適用しない。
func (a *Aggregator) ComputeStats(ctx context.Context, creatorID string) (model.AggregateStats, error) {
	metrics, err := a.videoRepo.ListMetrics(ctx, creatorID)
	if err != nil {
		if ctx.Err() != nil {
			return model.AggregateStats{}, ctx.Err()
		}
		slog.Error("failed to load video metrics",
			slog.String("creator_id", creatorID),
			slog.String("error", err.Error()),
		)
		return model.AggregateStats{}, model.NewUpstreamUnavailableError("video store", err)
	}
	return Compute(metrics), nil
}

// Compute は動画ごとの生データから統計値を算出する純粋関数。
// 動画が0件の場合はすべて0の値を返す。
func Compute(metrics []model.VideoMetrics) model.AggregateStats {
	out := model.AggregateStats{VideoCount: len(metrics)}
	if len(metrics) == 0 {
		return out
	}

	rates := make([]float64, len(metrics))
	for i, m := range metrics {
		out.TotalViews += m.ViewCount
		out.TotalLikes += m.LikeCount
		out.TotalComments += m.CommentCount
		if m.ShareCount != nil {
			out.TotalShares += *m.ShareCount
		}
		rates[i] = model.EngagementRate(m.ViewCount, m.LikeCount, m.CommentCount)
	}

	out.Engagement = summarize(rates)
	out.PostingFrequency = postingFrequency(metrics)
	return out
}

// summarize はエンゲージメント率の平均・中央値・最小・最大を返す。
func summarize(rates []float64) model.EngagementSummary {
	sorted := append([]float64(nil), rates...)
	sort.Float64s(sorted)

	var sum float64
	for _, r := range sorted {
		sum += r
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return model.EngagementSummary{
		Average: round2(sum / float64(n)),
		Median:  round2(median),
		Min:     round2(sorted[0]),
		Max:     round2(sorted[n-1]),
	}
}

// postingFrequency は最古と最新の投稿日時の間隔から週・月あたりの投稿数を返す。
// 1件以下、または全動画が同時刻の場合は頻度を確定できないため0を返す。
func postingFrequency(metrics []model.VideoMetrics) model.PostingFrequency {
	if len(metrics) < 2 {
		return model.PostingFrequency{}
	}

	earliest, latest := metrics[0].PostedAt, metrics[0].PostedAt
	for _, m := range metrics[1:] {
		if m.PostedAt.Before(earliest) {
			earliest = m.PostedAt
		}
		if m.PostedAt.After(latest) {
			latest = m.PostedAt
		}
	}

	spanDays := float64(latest.Sub(earliest)) / float64(day)
	if spanDays <= 0 {
		return model.PostingFrequency{}
	}

	perDay := float64(len(metrics)) / spanDays
	return model.PostingFrequency{
		PerWeek:  round2(perDay * week),
		PerMonth: round2(perDay * month),
	}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
