package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightera/qrhub/internal/model"
)

func newToken(code, recipient string, createdAt time.Time) *model.Token {
	return &model.Token{
		ID:          uuid.New(),
		Code:        code,
		Category:    model.CategoryParty,
		RecipientID: recipient,
		Status:      model.StatusPending,
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(time.Hour),
	}
}

func TestMemoryInsertRejectsDuplicateCode(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, newToken("c1", "r1", now)))
	err := repo.Insert(ctx, newToken("c1", "r2", now))
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestMemoryGetByCodeNotFound(t *testing.T) {
	repo := NewMemoryTokenRepository()

	_, err := repo.GetByCode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newToken("c1", "r1", time.Now())))

	first, err := repo.GetByCode(ctx, "c1")
	require.NoError(t, err)
	first.Status = model.StatusUsed // caller-side mutation must not leak

	second, err := repo.GetByCode(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, second.Status)
}

func TestMemoryMarkUsedIsConditional(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()
	usedAt := time.Now()

	require.NoError(t, repo.Insert(ctx, newToken("c1", "r1", time.Now())))

	won, err := repo.MarkUsed(ctx, "c1", usedAt)
	require.NoError(t, err)
	assert.True(t, won)

	// Second write loses: the row is no longer pending.
	won, err = repo.MarkUsed(ctx, "c1", usedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, won)

	token, err := repo.GetByCode(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUsed, token.Status)
	require.NotNil(t, token.UsedAt)
	assert.Equal(t, usedAt, *token.UsedAt)
}

func TestMemoryMarkExpiredOnlyFromPending(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newToken("c1", "r1", time.Now())))

	won, err := repo.MarkUsed(ctx, "c1", time.Now())
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.MarkExpired(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, won, "used is terminal; expiry must not overwrite it")

	won, err = repo.MarkInactive(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, won)
}

func TestMemoryMarkOnUnknownCode(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()

	won, err := repo.MarkUsed(ctx, "missing", time.Now())
	require.NoError(t, err)
	assert.False(t, won)
}

func TestMemoryListByRecipientOrdering(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.Insert(ctx, newToken("old", "r1", base.Add(-2*time.Hour))))
	require.NoError(t, repo.Insert(ctx, newToken("new", "r1", base)))
	require.NoError(t, repo.Insert(ctx, newToken("mid", "r1", base.Add(-time.Hour))))
	require.NoError(t, repo.Insert(ctx, newToken("other", "r2", base)))

	tokens, err := repo.ListByRecipient(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "new", tokens[0].Code)
	assert.Equal(t, "mid", tokens[1].Code)
	assert.Equal(t, "old", tokens[2].Code)
}

func TestMemoryCountByStatus(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, newToken("c1", "r1", now)))
	require.NoError(t, repo.Insert(ctx, newToken("c2", "r1", now)))
	won, err := repo.MarkUsed(ctx, "c2", now)
	require.NoError(t, err)
	require.True(t, won)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, StatusCount{Category: model.CategoryParty, Status: model.StatusPending, Total: 1}, counts[0])
	assert.Equal(t, StatusCount{Category: model.CategoryParty, Status: model.StatusUsed, Total: 1}, counts[1])
}
