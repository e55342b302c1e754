// Package video はクリエイターの動画を取得し、並び替えと件数上限を適用する。
package video

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hitoshi/reelscope/internal/model"
	"github.com/hitoshi/reelscope/internal/repository"
)

// Selector はクリエイターの動画一覧を選択する。
// プラットフォームごとの差異（リール、ショート等）は持たず、Platformタグ付きのVideoを扱う。
type Selector struct {
	videoRepo repository.VideoRepository
}

// NewSelector はSelectorを生成する。
func NewSelector(videoRepo repository.VideoRepository) *Selector {
	return &Selector{videoRepo: videoRepo}
}

// SelectVideos はクリエイターの動画を指定順に最大limit件返す。
//
// orderByが空の場合はエンゲージメント率、directionが空の場合は降順とする。
// エンゲージメント率はカウントから再計算し、ストアの返却順に依存しないよう
// posted_at降順、id昇順を同値解決キーとして並べ直す。
// 動画がない場合は空スライスを返す。
func (s *Selector) SelectVideos(ctx context.Context, creatorID string, limit int, orderBy model.VideoOrderField, direction model.OrderDirection) ([]model.Video, error) {
	if limit <= 0 {
		return nil, model.NewInvalidInputError(fmt.Sprintf("件数上限は1以上である必要があります: %d", limit))
	}
	if orderBy == "" {
		orderBy = model.OrderByEngagementRate
	}
	if direction == "" {
		direction = model.OrderDesc
	}
	if !orderBy.Valid() {
		return nil, model.NewInvalidInputError(fmt.Sprintf("未対応の並び替えキーです: %s", orderBy))
	}
	if !direction.Valid() {
		return nil, model.NewInvalidInputError(fmt.Sprintf("未対応の並び順です: %s", direction))
	}

	videos, err := s.videoRepo.ListByCreator(ctx, creatorID, model.VideoQuery{
		Limit:     limit,
		OrderBy:   orderBy,
		Direction: direction,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Error("failed to list videos",
			slog.String("creator_id", creatorID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamUnavailableError("video store", err)
	}

	for i := range videos {
		v := &videos[i]
		v.EngagementRate = model.EngagementRate(v.ViewCount, v.LikeCount, v.CommentCount)
	}

	SortVideos(videos, orderBy, direction)

	if len(videos) > limit {
		videos = videos[:limit]
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return videos, nil
}

// SortVideos は動画を指定キーで安定ソートする。
// 主キーが同値の場合はposted_at降順、さらにid昇順で並べる。
func SortVideos(videos []model.Video, orderBy model.VideoOrderField, direction model.OrderDirection) {
	slices.SortStableFunc(videos, func(a, b model.Video) int {
		if c := compareBy(a, b, orderBy); c != 0 {
			if direction == model.OrderAsc {
				return c
			}
			return -c
		}
		if c := b.PostedAt.Compare(a.PostedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// compareBy はa<bなら負、a>bなら正、同値なら0を返す。
func compareBy(a, b model.Video, orderBy model.VideoOrderField) int {
	switch orderBy {
	case model.OrderByPostedAt:
		return a.PostedAt.Compare(b.PostedAt)
	case model.OrderByViews:
		return cmp.Compare(a.ViewCount, b.ViewCount)
	case model.OrderByLikes:
		return cmp.Compare(a.LikeCount, b.LikeCount)
	case model.OrderByComments:
		return cmp.Compare(a.CommentCount, b.CommentCount)
	default:
		return cmp.Compare(a.EngagementRate, b.EngagementRate)
	}
}
