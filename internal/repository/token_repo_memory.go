package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"lightera/qrhub/internal/model"
)

type memoryTokenRepository struct {
	mu     sync.RWMutex
	byCode map[string]*model.Token
}

// NewMemoryTokenRepository returns an in-process TokenRepository. It backs the
// "memory" store backend for local development and the unit tests. The mutex
// is held across each read-check-write, which gives the same at-most-once
// behavior as the SQL conditional update.
func NewMemoryTokenRepository() TokenRepository {
	return &memoryTokenRepository{
		byCode: make(map[string]*model.Token),
	}
}

func (r *memoryTokenRepository) Insert(_ context.Context, token *model.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[token.Code]; exists {
		return ErrDuplicateCode
	}
	stored := *token
	r.byCode[token.Code] = &stored
	return nil
}

func (r *memoryTokenRepository) GetByCode(_ context.Context, code string) (*model.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *memoryTokenRepository) MarkUsed(_ context.Context, code string, usedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byCode[code]
	if !ok || token.Status != model.StatusPending {
		return false, nil
	}
	token.Status = model.StatusUsed
	token.UsedAt = &usedAt
	return true, nil
}

func (r *memoryTokenRepository) MarkExpired(ctx context.Context, code string) (bool, error) {
	return r.markStatus(code, model.StatusExpired)
}

func (r *memoryTokenRepository) MarkInactive(ctx context.Context, code string) (bool, error) {
	return r.markStatus(code, model.StatusInactive)
}

func (r *memoryTokenRepository) markStatus(code string, status model.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byCode[code]
	if !ok || token.Status != model.StatusPending {
		return false, nil
	}
	token.Status = status
	return true, nil
}

func (r *memoryTokenRepository) ListByRecipient(_ context.Context, recipientID string) ([]model.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tokens []model.Token
	for _, token := range r.byCode {
		if token.RecipientID == recipientID {
			tokens = append(tokens, *token)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
	})
	return tokens, nil
}

func (r *memoryTokenRepository) CountByStatus(_ context.Context) ([]StatusCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := make(map[model.Category]map[model.Status]int64)
	for _, token := range r.byCode {
		if totals[token.Category] == nil {
			totals[token.Category] = make(map[model.Status]int64)
		}
		totals[token.Category][token.Status]++
	}

	var counts []StatusCount
	for _, category := range model.Categories() {
		for _, status := range model.Statuses() {
			if total := totals[category][status]; total > 0 {
				counts = append(counts, StatusCount{Category: category, Status: status, Total: total})
			}
		}
	}
	return counts, nil
}
