package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/config"
	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error)
}

type rateLimitRepository struct {
	client *redis.Client
	cfg    *config.Config
}

func NewRateLimitRepo(client *redis.Client, cfg *config.Config) RateLimitRepository {
	return &rateLimitRepository{client: client, cfg: cfg}
}

// CheckLoginRateLimit records the attempt and evaluates it against a sliding
// window over a Redis sorted set keyed by username.
// Returns isAllowed, attempts left, seconds to wait, error.
func (r *rateLimitRepository) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := fmt.Sprintf("login_attempts:%s", username)

	now := time.Now().Unix()

	// attempts older than this fall out of the window
	windowStart := now - int64(r.cfg.RateConfig.WindowSize.Seconds())

	pipe := r.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.cfg.RateConfig.WindowSize)

	_, err := pipe.Exec(ctx)
	if err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()
	remaining := r.cfg.RateConfig.MaxAttempts - attempts

	if attempts >= r.cfg.RateConfig.MaxAttempts {

		oldestScoreCmd := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{
			Key: key, Start: 0, Stop: 0,
		})

		scores, err := oldestScoreCmd.Result()
		if err != nil || len(scores) == 0 {
			logger.Error("Failed to get oldest attempt time for rate limit", slog.String("key", key), slog.Any("error", err))
			return false, 0, int(r.cfg.RateConfig.WindowSize.Seconds()), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		oldestTimestamp := int64(scores[0].Score)

		retryAfter := max((oldestTimestamp+int64(r.cfg.RateConfig.WindowSize.Seconds()))-now, 0)

		logger.Warn("Rate limit exceeded for user", slog.String("username", username), slog.Int64("attempts", attempts))

		return false, 0, int(retryAfter), nil
	}

	logger.Debug("Rate limit check passed", slog.String("username", username), slog.Int64("attempts", attempts), slog.Int64("remaining", remaining))

	return true, int(remaining), 0, nil
}
