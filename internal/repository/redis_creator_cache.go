package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/reelscope/internal/model"
)

const creatorCacheKeyPrefix = "reelscope:creator:"

// キャッシュ参照結果
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// CacheRecorder はキャッシュ参照結果の記録先。
type CacheRecorder interface {
	RecordCacheLookup(result string)
}

// CachedCreatorRepo はCreatorRepositoryの前段にRedisの読み取りキャッシュを置くデコレータ。
// キャッシュはプロフィールのみを対象とし、動画と統計は常にストアから取得する。
// Redisの障害時はログを出して下位リポジトリにフォールバックする。
// 未検出（nil）の結果はキャッシュしない。
type CachedCreatorRepo struct {
	next   CreatorRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger

	recorder CacheRecorder
}

// NewCachedCreatorRepo はCachedCreatorRepoを生成する。
func NewCachedCreatorRepo(next CreatorRepository, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedCreatorRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedCreatorRepo{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// WithRecorder はキャッシュ参照結果の記録先を設定する。
func (r *CachedCreatorRepo) WithRecorder(rec CacheRecorder) *CachedCreatorRepo {
	r.recorder = rec
	return r
}

func (r *CachedCreatorRepo) record(result string) {
	if r.recorder != nil {
		r.recorder.RecordCacheLookup(result)
	}
}

// cachedCreator はRedisに保存するプロフィールのJSON表現。
type cachedCreator struct {
	ID             string     `json:"id"`
	Platform       string     `json:"platform"`
	Username       string     `json:"username"`
	DisplayName    string     `json:"display_name"`
	Bio            string     `json:"bio"`
	AvatarURL      string     `json:"avatar_url"`
	FollowerCount  int64      `json:"follower_count"`
	FollowingCount int64      `json:"following_count"`
	Verified       bool       `json:"verified"`
	LastScrapedAt  *time.Time `json:"last_scraped_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FindByPlatformAndUsername はキャッシュを参照し、ミス時は下位リポジトリから取得してキャッシュする。
func (r *CachedCreatorRepo) FindByPlatformAndUsername(ctx context.Context, platform model.Platform, username string) (*model.CreatorProfile, error) {
	key := creatorCacheKey(platform, username)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c cachedCreator
		if jsonErr := json.Unmarshal(data, &c); jsonErr == nil {
			r.record(CacheHit)
			return c.toModel(), nil
		}
		r.record(CacheError)
		r.logger.Warn("discarding malformed creator cache entry", slog.String("key", key))
	case errors.Is(err, redis.Nil):
		r.record(CacheMiss)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		r.record(CacheError)
		r.logger.Warn("creator cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	profile, err := r.next.FindByPlatformAndUsername(ctx, platform, username)
	if err != nil || profile == nil {
		return profile, err
	}

	if err := r.store(ctx, key, profile); err != nil {
		r.logger.Warn("creator cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return profile, nil
}

func (r *CachedCreatorRepo) store(ctx context.Context, key string, p *model.CreatorProfile) error {
	data, err := json.Marshal(fromModel(p))
	if err != nil {
		return fmt.Errorf("failed to marshal creator: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set creator in Redis: %w", err)
	}
	return nil
}

func creatorCacheKey(platform model.Platform, username string) string {
	return creatorCacheKeyPrefix + string(platform) + ":" + strings.ToLower(username)
}

func fromModel(p *model.CreatorProfile) cachedCreator {
	return cachedCreator{
		ID:             p.ID,
		Platform:       string(p.Platform),
		Username:       p.Username,
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		AvatarURL:      p.AvatarURL,
		FollowerCount:  p.FollowerCount,
		FollowingCount: p.FollowingCount,
		Verified:       p.Verified,
		LastScrapedAt:  p.LastScrapedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (c cachedCreator) toModel() *model.CreatorProfile {
	return &model.CreatorProfile{
		ID:             c.ID,
		Platform:       model.Platform(c.Platform),
		Username:       c.Username,
		DisplayName:    c.DisplayName,
		Bio:            c.Bio,
		AvatarURL:      c.AvatarURL,
		FollowerCount:  c.FollowerCount,
		FollowingCount: c.FollowingCount,
		Verified:       c.Verified,
		LastScrapedAt:  c.LastScrapedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// compile-time interface check
var _ CreatorRepository = (*CachedCreatorRepo)(nil)
