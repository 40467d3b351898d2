package repository

import (
	"context"
	"errors"
	"time"

	"lightera/qrhub/internal/model"
)

var (
	// ErrDuplicateCode is returned by Insert when the code already exists.
	ErrDuplicateCode = errors.New("token code already exists")
	// ErrNotFound is returned by GetByCode when no token has the code.
	ErrNotFound = errors.New("token not found")
)

// StatusCount is one row of the reporting aggregate.
type StatusCount struct {
	Category model.Category `json:"category"`
	Status   model.Status   `json:"status"`
	Total    int64          `json:"total"`
}

// TokenRepository is dumb storage keyed by code. It never decides whether a
// state transition is legal; the service layer does. The Mark* methods are
// conditional writes guarded on the current status being pending, and report
// whether the row was actually written, so the service can detect losing a
// race without holding any lock of its own.
type TokenRepository interface {
	Insert(ctx context.Context, token *model.Token) error
	GetByCode(ctx context.Context, code string) (*model.Token, error)

	// MarkUsed sets status=used and used_at only if the token is pending.
	MarkUsed(ctx context.Context, code string, usedAt time.Time) (bool, error)
	// MarkExpired sets status=expired only if the token is pending.
	MarkExpired(ctx context.Context, code string) (bool, error)
	// MarkInactive sets status=inactive only if the token is pending.
	MarkInactive(ctx context.Context, code string) (bool, error)

	ListByRecipient(ctx context.Context, recipientID string) ([]model.Token, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
}
