package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lightera/qrhub/internal/model"
	"lightera/qrhub/internal/repository"
)

// ValidationResult is what a redemption station sees after scanning a code.
// IsUsable is derived after the lazy expiry check has run.
type ValidationResult struct {
	Token    *model.Token
	IsUsable bool
}

// UsageStats aggregates token counts per category and status for reporting.
type UsageStats struct {
	Counts []repository.StatusCount `json:"counts"`
	Total  int64                    `json:"total"`
}

type TokenService interface {
	Mint(ctx context.Context, category, recipientID string, duration time.Duration, metadata string) (*model.Token, error)
	Validate(ctx context.Context, code string) (*ValidationResult, error)
	// Redeem consumes a pending token. On ErrTokenUsed, ErrTokenExpired and
	// ErrTokenInactive the token snapshot is returned alongside the error so
	// callers can report the prior used_at or expiry to the operator.
	Redeem(ctx context.Context, code string) (*model.Token, error)
	// Cancel hand-retires a pending token (administrative, terminal).
	Cancel(ctx context.Context, code string) (*model.Token, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]model.Token, error)
	Stats(ctx context.Context) (*UsageStats, error)
}

type tokenService struct {
	repo     repository.TokenRepository
	cache    repository.ReportCache
	cacheTTL time.Duration
}

func NewTokenService(repo repository.TokenRepository, cache repository.ReportCache, cacheTTL time.Duration) TokenService {
	return &tokenService{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

func (s *tokenService) Mint(ctx context.Context, category, recipientID string, duration time.Duration, metadata string) (*model.Token, error) {
	cat, ok := model.ParseCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	code, err := generateTokenCode()
	if err != nil {
		return nil, fmt.Errorf("generate token code: %w", err)
	}

	now := time.Now().UTC()
	token := &model.Token{
		ID:          uuid.New(),
		Code:        code,
		Category:    cat,
		RecipientID: recipientID,
		Status:      model.StatusPending,
		Metadata:    metadata,
		CreatedAt:   now,
		// A zero or negative duration is legal and yields a token that is
		// already expired on first validation.
		ExpiresAt: now.Add(duration),
	}
	if err := s.repo.Insert(ctx, token); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			return nil, fmt.Errorf("%w: retry with a new mint", ErrDuplicateCode)
		}
		return nil, fmt.Errorf("insert token: %w", err)
	}

	s.invalidateReports(ctx, recipientID)
	return token, nil
}

func (s *tokenService) Validate(ctx context.Context, code string) (*ValidationResult, error) {
	token, err := s.fetchFresh(ctx, code)
	if err != nil {
		return nil, err
	}
	return &ValidationResult{Token: token, IsUsable: token.IsUsable()}, nil
}

func (s *tokenService) Redeem(ctx context.Context, code string) (*model.Token, error) {
	token, err := s.fetchFresh(ctx, code)
	if err != nil {
		return nil, err
	}

	switch token.Status {
	case model.StatusUsed:
		return token, ErrTokenUsed
	case model.StatusExpired:
		return token, ErrTokenExpired
	case model.StatusInactive:
		return token, ErrTokenInactive
	}

	usedAt := time.Now().UTC()
	won, err := s.repo.MarkUsed(ctx, code, usedAt)
	if err != nil {
		return nil, fmt.Errorf("mark token used: %w", err)
	}
	if !won {
		// A concurrent redeem or expiry flip got there first; re-read and
		// report the terminal state it landed in.
		token, err := s.fetchFresh(ctx, code)
		if err != nil {
			return nil, err
		}
		switch token.Status {
		case model.StatusUsed:
			return token, ErrTokenUsed
		case model.StatusExpired:
			return token, ErrTokenExpired
		default:
			return token, ErrTokenInactive
		}
	}

	token.Status = model.StatusUsed
	token.UsedAt = &usedAt
	s.invalidateReports(ctx, token.RecipientID)
	return token, nil
}

func (s *tokenService) Cancel(ctx context.Context, code string) (*model.Token, error) {
	token, err := s.fetchFresh(ctx, code)
	if err != nil {
		return nil, err
	}
	if token.Status != model.StatusPending {
		return token, ErrNotCancellable
	}

	won, err := s.repo.MarkInactive(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("mark token inactive: %w", err)
	}
	if !won {
		token, err := s.fetchFresh(ctx, code)
		if err != nil {
			return nil, err
		}
		return token, ErrNotCancellable
	}

	token.Status = model.StatusInactive
	s.invalidateReports(ctx, token.RecipientID)
	return token, nil
}

func (s *tokenService) ListByRecipient(ctx context.Context, recipientID string) ([]model.Token, error) {
	key := recipientReportKey(recipientID)
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
		var tokens []model.Token
		if err := json.Unmarshal(cached, &tokens); err == nil {
			return tokens, nil
		}
	}

	tokens, err := s.repo.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list tokens for recipient %s: %w", recipientID, err)
	}

	if payload, err := json.Marshal(tokens); err == nil {
		// Cache write failures only cost the next read a DB round trip.
		_ = s.cache.Set(ctx, key, payload, s.cacheTTL)
	}
	return tokens, nil
}

func (s *tokenService) Stats(ctx context.Context) (*UsageStats, error) {
	if cached, err := s.cache.Get(ctx, statsReportKey); err == nil && cached != nil {
		var stats UsageStats
		if err := json.Unmarshal(cached, &stats); err == nil {
			return &stats, nil
		}
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tokens: %w", err)
	}
	stats := &UsageStats{Counts: counts}
	for _, c := range counts {
		stats.Total += c.Total
	}

	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, statsReportKey, payload, s.cacheTTL)
	}
	return stats, nil
}

// fetchFresh is the single lazy-expiry path shared by validate, redeem and
// cancel: read the token and, if its deadline has passed while still pending,
// record the expiry before anyone inspects the state. Losing the conditional
// write to a concurrent redeemer is fine; the re-read reports whatever state
// won.
func (s *tokenService) fetchFresh(ctx context.Context, code string) (*model.Token, error) {
	token, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("load token: %w", err)
	}

	if token.Status == model.StatusPending && time.Now().UTC().After(token.ExpiresAt) {
		won, err := s.repo.MarkExpired(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("mark token expired: %w", err)
		}
		if won {
			token.Status = model.StatusExpired
			s.invalidateReports(ctx, token.RecipientID)
		} else {
			token, err = s.repo.GetByCode(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("reload token: %w", err)
			}
		}
	}
	return token, nil
}

func (s *tokenService) invalidateReports(ctx context.Context, recipientID string) {
	_ = s.cache.Delete(ctx, recipientReportKey(recipientID))
	_ = s.cache.Delete(ctx, statsReportKey)
}

const statsReportKey = "report:stats"

func recipientReportKey(recipientID string) string {
	return "report:recipient:" + recipientID
}

// generateTokenCode creates a random 32-character hex code. 128 bits of
// entropy makes a collision with any previously minted code negligible; the
// store's unique index catches the astronomically unlikely exception.
func generateTokenCode() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
