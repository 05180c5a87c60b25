package conversationRepo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memConversationRepo struct {
	records map[string]*models.Conversation
	gets    int
	saveErr error
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{records: make(map[string]*models.Conversation)}
}

func (m *memConversationRepo) Get(ctx context.Context, userID string) (*models.Conversation, error) {
	m.gets++
	conv, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	clone := *conv
	return &clone, nil
}

func (m *memConversationRepo) Save(ctx context.Context, conv *models.Conversation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	clone := *conv
	clone.Version++
	m.records[conv.UserID] = &clone
	conv.Version = clone.Version
	return nil
}

func (m *memConversationRepo) History(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	return nil, nil
}

func (m *memConversationRepo) Purge(ctx context.Context, userID string) error {
	delete(m.records, userID)
	return nil
}

func cachedRepoFixture(t *testing.T) (ConversationRepository, *memConversationRepo, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := newMemConversationRepo()
	return NewCachedConversationRepo(inner, client, time.Minute), inner, mr
}

func TestCachedRepoGetPopulatesCache(t *testing.T) {
	repo, inner, mr := cachedRepoFixture(t)
	ctx := context.Background()

	conv := models.NewConversation("whatsapp:+447700900123")
	require.NoError(t, inner.Save(ctx, conv))

	got, err := repo.Get(ctx, conv.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, inner.gets)
	assert.True(t, mr.Exists(convCachePrefix+conv.UserID))

	// Second read is served from the cache.
	got, err = repo.Get(ctx, conv.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, inner.gets)
}

func TestCachedRepoGetMissesForUnknownUser(t *testing.T) {
	repo, inner, mr := cachedRepoFixture(t)

	got, err := repo.Get(context.Background(), "whatsapp:+447700900999")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, inner.gets)
	assert.False(t, mr.Exists(convCachePrefix+"whatsapp:+447700900999"))
}

func TestCachedRepoSaveWritesThrough(t *testing.T) {
	repo, inner, mr := cachedRepoFixture(t)
	ctx := context.Background()

	conv := models.NewConversation("whatsapp:+447700900123")
	conv.Language = "ur"
	require.NoError(t, repo.Save(ctx, conv))

	raw, err := mr.Get(convCachePrefix + conv.UserID)
	require.NoError(t, err)
	var cached models.Conversation
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, "ur", cached.Language)
	assert.Equal(t, conv.Version, cached.Version)

	// Reads now come straight from the cache.
	got, err := repo.Get(ctx, conv.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ur", got.Language)
	assert.Equal(t, 0, inner.gets)
}

func TestCachedRepoSaveFailureInvalidatesCache(t *testing.T) {
	repo, inner, mr := cachedRepoFixture(t)
	ctx := context.Background()

	conv := models.NewConversation("whatsapp:+447700900123")
	require.NoError(t, repo.Save(ctx, conv))
	require.True(t, mr.Exists(convCachePrefix+conv.UserID))

	inner.saveErr = ErrVersionConflict
	err := repo.Save(ctx, conv)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.False(t, mr.Exists(convCachePrefix+conv.UserID))
}

func TestCachedRepoCorruptEntryFallsBackToStore(t *testing.T) {
	repo, inner, mr := cachedRepoFixture(t)
	ctx := context.Background()

	conv := models.NewConversation("whatsapp:+447700900123")
	require.NoError(t, inner.Save(ctx, conv))
	require.NoError(t, mr.Set(convCachePrefix+conv.UserID, "{not json"))

	got, err := repo.Get(ctx, conv.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, conv.UserID, got.UserID)
	assert.Equal(t, 1, inner.gets)
}

func TestCachedRepoPurgeDropsCacheEntry(t *testing.T) {
	repo, _, mr := cachedRepoFixture(t)
	ctx := context.Background()

	conv := models.NewConversation("whatsapp:+447700900123")
	require.NoError(t, repo.Save(ctx, conv))
	require.True(t, mr.Exists(convCachePrefix+conv.UserID))

	require.NoError(t, repo.Purge(ctx, conv.UserID))
	assert.False(t, mr.Exists(convCachePrefix+conv.UserID))
}
