package caching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gstinvoice/internal/models"
)

const keyPrefix = "gstinvoice"

type CacheService interface {
	// Remote image bytes (logo, signature) keyed by URL
	GetAsset(ctx context.Context, url string) ([]byte, error)
	SetAsset(ctx context.Context, url string, data []byte, ttl time.Duration) error

	// Seller profile caching for PDF generation
	GetSeller(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error)
	SetSeller(ctx context.Context, seller *models.Seller, ttl time.Duration) error
	DeleteSeller(ctx context.Context, sellerID uuid.UUID) error

	// Refresh tokens
	SetRefreshToken(ctx context.Context, tokenID string, sellerID uuid.UUID, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient accepts either host:port or a redis:// URL.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if password != "" {
			opts.Password = password
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), nil
}

func NewRedisCacheService(client *redis.Client, logger *zap.Logger) CacheService {
	logger = logger.Named("cache")
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis ping failed on startup", zap.String("addr", client.Options().Addr), zap.Error(err))
	}
	return &redisCacheService{client: client, logger: logger}
}

func assetKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%s:asset:%s", keyPrefix, hex.EncodeToString(sum[:]))
}

func sellerKey(sellerID uuid.UUID) string {
	return fmt.Sprintf("%s:seller:%s", keyPrefix, sellerID.String())
}

func refreshKey(tokenID string) string {
	return fmt.Sprintf("%s:refresh:%s", keyPrefix, tokenID)
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
}

func (r *redisCacheService) GetAsset(ctx context.Context, url string) ([]byte, error) {
	data, err := r.client.Get(ctx, assetKey(url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}
	return data, nil
}

func (r *redisCacheService) SetAsset(ctx context.Context, url string, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, assetKey(url), data, ttl).Err()
}

func (r *redisCacheService) GetSeller(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error) {
	data, err := r.client.Get(ctx, sellerKey(sellerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var seller models.Seller
	if err := json.Unmarshal(data, &seller); err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *redisCacheService) SetSeller(ctx context.Context, seller *models.Seller, ttl time.Duration) error {
	data, err := json.Marshal(seller)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sellerKey(seller.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteSeller(ctx context.Context, sellerID uuid.UUID) error {
	return r.client.Del(ctx, sellerKey(sellerID)).Err()
}

func (r *redisCacheService) SetRefreshToken(ctx context.Context, tokenID string, sellerID uuid.UUID, ttl time.Duration) error {
	return r.client.Set(ctx, refreshKey(tokenID), sellerID.String(), ttl).Err()
}

// GetRefreshToken returns uuid.Nil when the token is unknown or expired.
func (r *redisCacheService) GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, refreshKey(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (r *redisCacheService) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return r.client.Del(ctx, refreshKey(tokenID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := rateLimitKey(key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			r.logger.Warn("failed to set rate limit expiry", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) ResetRateLimit(ctx context.Context, key string) error {
	return r.client.Del(ctx, rateLimitKey(key)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
