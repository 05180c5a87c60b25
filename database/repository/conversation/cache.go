package conversationRepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const convCachePrefix = "conv:cur:"

// CachedConversationRepo layers a Redis write-through cache over another
// repository. The cache entry is rewritten on every save, so reads stay
// consistent with the latest completed write within the cache TTL.
type CachedConversationRepo struct {
	inner  ConversationRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedConversationRepo wraps inner with a Redis cache.
func NewCachedConversationRepo(inner ConversationRepository, client *redis.Client, ttl time.Duration) ConversationRepository {
	return &CachedConversationRepo{inner: inner, client: client, ttl: ttl}
}

func (r *CachedConversationRepo) Get(ctx context.Context, userID string) (*models.Conversation, error) {
	key := convCachePrefix + userID
	data, err := r.client.Get(ctx, key).Result()
	if err == nil {
		var conv models.Conversation
		if jsonErr := json.Unmarshal([]byte(data), &conv); jsonErr == nil {
			return &conv, nil
		}
		// Corrupt entry: fall through to the source of truth.
		r.client.Del(ctx, key)
	} else if err != redis.Nil {
		zap.L().Warn("conversation cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	conv, err := r.inner.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		r.cacheSet(ctx, conv)
	}
	return conv, nil
}

func (r *CachedConversationRepo) Save(ctx context.Context, conv *models.Conversation) error {
	if err := r.inner.Save(ctx, conv); err != nil {
		// A failed conditional write means the cached entry may be stale.
		r.client.Del(ctx, convCachePrefix+conv.UserID)
		return err
	}
	r.cacheSet(ctx, conv)
	return nil
}

func (r *CachedConversationRepo) History(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	return r.inner.History(ctx, userID, limit)
}

func (r *CachedConversationRepo) Purge(ctx context.Context, userID string) error {
	if err := r.inner.Purge(ctx, userID); err != nil {
		return err
	}
	return r.client.Del(ctx, convCachePrefix+userID).Err()
}

func (r *CachedConversationRepo) cacheSet(ctx context.Context, conv *models.Conversation) {
	b, err := json.Marshal(conv)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, convCachePrefix+conv.UserID, b, r.ttl).Err(); err != nil {
		zap.L().Warn("conversation cache write failed", zap.String("user_id", conv.UserID), zap.Error(err))
	}
}
