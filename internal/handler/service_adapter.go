package handler

import (
	"context"

	"github.com/hitoshi/reelscope/internal/creator"
	"github.com/hitoshi/reelscope/internal/model"
	"github.com/hitoshi/reelscope/internal/security"
)

// CreatorAggregator はクリエイター集約を行うドメインサービスのインターフェース。
// creator.Serviceが満たす。
type CreatorAggregator interface {
	Aggregate(ctx context.Context, req creator.Request) (*model.CreatorAggregate, error)
}

// CreatorServiceAdapter は CreatorAggregator を CreatorServiceInterface に適合させるアダプタ。
// 収集元由来のテキストとURLはレスポンス変換時にサニタイズする。
type CreatorServiceAdapter struct {
	svc       CreatorAggregator
	sanitizer security.ContentSanitizerService
}

// NewCreatorServiceAdapter はCreatorServiceAdapterを生成する。
func NewCreatorServiceAdapter(svc CreatorAggregator, sanitizer security.ContentSanitizerService) *CreatorServiceAdapter {
	return &CreatorServiceAdapter{svc: svc, sanitizer: sanitizer}
}

// GetCreator はクリエイターの集約結果をhandlerレスポンス型で返す。
func (a *CreatorServiceAdapter) GetCreator(ctx context.Context, req creator.Request) (*creatorResponse, error) {
	agg, err := a.svc.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}

	videos := make([]videoResponse, len(agg.Videos))
	for i, v := range agg.Videos {
		videos[i] = a.toVideoResponse(v)
	}

	return &creatorResponse{
		Profile:        a.toProfileResponse(agg.Profile),
		Videos:         videos,
		Stats:          toStatsResponse(agg.Stats),
		Freshness:      string(agg.Freshness),
		CacheTimestamp: agg.CacheTimestamp,
		VideoLimit:     agg.VideoLimit,
	}, nil
}

func (a *CreatorServiceAdapter) toProfileResponse(p *model.CreatorProfile) profileResponse {
	if p == nil {
		return profileResponse{}
	}
	return profileResponse{
		ID:             p.ID,
		Platform:       string(p.Platform),
		Username:       p.Username,
		DisplayName:    a.sanitizer.SanitizeText(p.DisplayName),
		Bio:            a.sanitizer.SanitizeText(p.Bio),
		AvatarURL:      a.sanitizer.SanitizeURL(p.AvatarURL),
		FollowerCount:  p.FollowerCount,
		FollowingCount: p.FollowingCount,
		Verified:       p.Verified,
		LastScrapedAt:  p.LastScrapedAt,
	}
}

func (a *CreatorServiceAdapter) toVideoResponse(v model.Video) videoResponse {
	return videoResponse{
		ID:              v.ID,
		Platform:        string(v.Platform),
		ExternalID:      v.ExternalID,
		URL:             a.sanitizer.SanitizeURL(v.URL),
		Description:     a.sanitizer.SanitizeText(v.Description),
		ThumbnailURL:    a.sanitizer.SanitizeURL(v.ThumbnailURL),
		ViewCount:       v.ViewCount,
		LikeCount:       v.LikeCount,
		CommentCount:    v.CommentCount,
		ShareCount:      v.ShareCount,
		EngagementRate:  v.EngagementRate,
		PostedAt:        v.PostedAt,
		DurationSeconds: v.DurationSeconds,
	}
}

func toStatsResponse(s model.AggregateStats) statsResponse {
	return statsResponse{
		VideoCount:    s.VideoCount,
		TotalViews:    s.TotalViews,
		TotalLikes:    s.TotalLikes,
		TotalComments: s.TotalComments,
		TotalShares:   s.TotalShares,
		Engagement: engagementResponse{
			Average: s.Engagement.Average,
			Median:  s.Engagement.Median,
			Min:     s.Engagement.Min,
			Max:     s.Engagement.Max,
		},
		PostingFrequency: postingFrequencyResponse{
			PerWeek:  s.PostingFrequency.PerWeek,
			PerMonth: s.PostingFrequency.PerMonth,
		},
	}
}

// --- compile-time interface checks ---

var _ CreatorServiceInterface = (*CreatorServiceAdapter)(nil)
var _ CreatorAggregator = (*creator.Service)(nil)
