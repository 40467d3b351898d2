package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lightera/qrhub/internal/model"
)

type gormTokenRepository struct {
	db *gorm.DB
}

// NewGormTokenRepository returns a TokenRepository backed by any GORM dialect
// (postgres in production, embedded sqlite for single-box deployments).
func NewGormTokenRepository(db *gorm.DB) TokenRepository {
	return &gormTokenRepository{db: db}
}

func (r *gormTokenRepository) Insert(ctx context.Context, token *model.Token) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *gormTokenRepository) GetByCode(ctx context.Context, code string) (*model.Token, error) {
	var token model.Token
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// MarkUsed is the compare-and-swap the at-most-once guarantee rests on: the
// WHERE clause only matches a pending row, so under concurrent redemption
// exactly one UPDATE reports an affected row.
func (r *gormTokenRepository) MarkUsed(ctx context.Context, code string, usedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("code = ? AND status = ?", code, model.StatusPending).
		Updates(map[string]interface{}{"status": model.StatusUsed, "used_at": usedAt})
	return res.RowsAffected > 0, res.Error
}

func (r *gormTokenRepository) MarkExpired(ctx context.Context, code string) (bool, error) {
	return r.markStatus(ctx, code, model.StatusExpired)
}

func (r *gormTokenRepository) MarkInactive(ctx context.Context, code string) (bool, error) {
	return r.markStatus(ctx, code, model.StatusInactive)
}

func (r *gormTokenRepository) markStatus(ctx context.Context, code string, status model.Status) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("code = ? AND status = ?", code, model.StatusPending).
		UpdateColumn("status", status)
	return res.RowsAffected > 0, res.Error
}

func (r *gormTokenRepository) ListByRecipient(ctx context.Context, recipientID string) ([]model.Token, error) {
	var tokens []model.Token
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *gormTokenRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Select("category, status, COUNT(*) as total").
		Group("category").Group("status").
		Order("category").Order("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
