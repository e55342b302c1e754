// Package creator はクリエイター1人分の集約レスポンスを組み立てる。
//
// プロフィール取得後、動画件数上限の解決と動画取得、全履歴の統計算出を並行に実行し、
// 鮮度判定と合わせて1つのCreatorAggregateにまとめる。
package creator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/reelscope/internal/metrics"
	"github.com/hitoshi/reelscope/internal/model"
	"github.com/hitoshi/reelscope/internal/repository"
)

// usernamePattern は正規化後のユーザー名の形式。
var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{1,64}$`)

// LimitResolver はユーザーの動画件数上限を解決する。
type LimitResolver interface {
	ResolveLimit(ctx context.Context, userID *string) (int, error)
}

// VideoSelector はクリエイターの動画を並び替えて件数上限内で返す。
type VideoSelector interface {
	SelectVideos(ctx context.Context, creatorID string, limit int, orderBy model.VideoOrderField, direction model.OrderDirection) ([]model.Video, error)
}

// StatsComputer はクリエイターの全動画履歴から統計値を算出する。
type StatsComputer interface {
	ComputeStats(ctx context.Context, creatorID string) (model.AggregateStats, error)
}

// FreshnessClassifier は最終収集日時から鮮度を判定する。
type FreshnessClassifier interface {
	Classify(lastScrapedAt *time.Time, now time.Time) model.FreshnessState
}

// Recorder は集約処理のメトリクス記録先。
type Recorder interface {
	RecordAggregation(platform, outcome string)
	RecordAggregationLatency(duration time.Duration)
	RecordVideoLimit(limit int)
}

// Request は集約リクエスト。
type Request struct {
	Platform string
	Username string
	// UserID は閲覧者のユーザーID。未ログインの場合はnil。
	UserID *string

	// OrderBy, Direction が空の場合はエンゲージメント率の降順。
	OrderBy   model.VideoOrderField
	Direction model.OrderDirection
}

// ServiceConfig はServiceの任意設定。
type ServiceConfig struct {
	// Now は現在時刻を返す。nilの場合はtime.Now。
	Now func() time.Time
	// Recorder がnilの場合はメトリクスを記録しない。
	Recorder Recorder
}

// Service はクリエイター集約のサービス層。
type Service struct {
	creatorRepo repository.CreatorRepository
	resolver    LimitResolver
	selector    VideoSelector
	stats       StatsComputer
	freshness   FreshnessClassifier

	now      func() time.Time
	recorder Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	creatorRepo repository.CreatorRepository,
	resolver LimitResolver,
	selector VideoSelector,
	stats StatsComputer,
	freshness FreshnessClassifier,
	cfg ServiceConfig,
) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		creatorRepo: creatorRepo,
		resolver:    resolver,
		selector:    selector,
		stats:       stats,
		freshness:   freshness,
		now:         now,
		recorder:    cfg.Recorder,
	}
}

// NormalizeUsername は前後の空白と先頭の@を1つ除去し、小文字化したユーザー名を返す。
// 形式に合わない場合はKindInputInvalidのエラーを返す。
func NormalizeUsername(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	u = strings.TrimPrefix(u, "@")
	u = strings.ToLower(u)
	if !usernamePattern.MatchString(u) {
		return "", model.NewInvalidInputError("ユーザー名は英数字と . _ - の1〜64文字で指定してください")
	}
	return u, nil
}

// Aggregate はクリエイターのプロフィール・動画・統計・鮮度をまとめて返す。
//
// プロフィールが存在しない場合はKindNotFoundのエラーを返し、動画と契約のストアには問い合わせない。
// いずれかのストアに到達できない場合はKindUpstreamUnavailable、
// 呼び出し元のコンテキストが終了した場合はそのエラーをラップして返す。
func (s *Service) Aggregate(ctx context.Context, req Request) (*model.CreatorAggregate, error) {
	start := s.now()
	result, err := s.aggregate(ctx, req)
	s.observe(req.Platform, start, result, err)
	return result, err
}

func (s *Service) aggregate(ctx context.Context, req Request) (*model.CreatorAggregate, error) {
	platform, err := model.ParsePlatform(req.Platform)
	if err != nil {
		return nil, err
	}
	username, err := NormalizeUsername(req.Username)
	if err != nil {
		return nil, err
	}

	profile, err := s.creatorRepo.FindByPlatformAndUsername(ctx, platform, username)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("creator lookup: %w", ctx.Err())
		}
		slog.Error("failed to load creator profile",
			slog.String("platform", string(platform)),
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamUnavailableError("profile store", err)
	}
	if profile == nil {
		return nil, model.NewCreatorNotFoundError(platform, username)
	}

	var (
		limit  int
		videos []model.Video
		stats  model.AggregateStats
	)

	g, gctx := errgroup.WithContext(ctx)

	// 動画の取得には件数上限が必要なため、上限解決と動画取得は同じ経路で直列に実行する
	g.Go(func() error {
		l, err := s.resolver.ResolveLimit(gctx, req.UserID)
		if err != nil {
			return err
		}
		v, err := s.selector.SelectVideos(gctx, profile.ID, l, req.OrderBy, req.Direction)
		if err != nil {
			return err
		}
		limit, videos = l, v
		return nil
	})

	g.Go(func() error {
		st, err := s.stats.ComputeStats(gctx, profile.ID)
		if err != nil {
			return err
		}
		stats = st
		return nil
	})

	freshness := s.freshness.Classify(profile.LastScrapedAt, s.now())

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("creator aggregation: %w", ctx.Err())
		}
		return nil, err
	}

	return &model.CreatorAggregate{
		Profile:        profile,
		Videos:         videos,
		Stats:          stats,
		Freshness:      freshness,
		CacheTimestamp: profile.LastScrapedAt,
		VideoLimit:     limit,
	}, nil
}

func (s *Service) observe(platform string, start time.Time, result *model.CreatorAggregate, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordAggregation(platformLabel(platform), outcomeOf(err))
	s.recorder.RecordAggregationLatency(s.now().Sub(start))
	if result != nil {
		s.recorder.RecordVideoLimit(result.VideoLimit)
	}
}

// platformLabel は未知のプラットフォームでラベルの種類が増えないよう丸める。
func platformLabel(raw string) string {
	p, err := model.ParsePlatform(raw)
	if err != nil {
		return "unknown"
	}
	return string(p)
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return metrics.OutcomeCanceled
	}
	switch model.KindOf(err) {
	case model.KindInputInvalid:
		return metrics.OutcomeInvalidInput
	case model.KindNotFound:
		return metrics.OutcomeNotFound
	case model.KindUpstreamUnavailable:
		return metrics.OutcomeUpstreamUnavailable
	default:
		return metrics.OutcomeError
	}
}
