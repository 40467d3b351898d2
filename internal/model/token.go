package model

import (
	"time"

	"github.com/google/uuid"
)

// Category is the closed set of benefit types a token can be issued for.
type Category string

const (
	CategoryParty     Category = "party"
	CategoryBaskets   Category = "baskets"
	CategoryToys      Category = "toys"
	CategorySchoolKit Category = "school-kit"
)

// Categories lists every valid category, in presentation order.
func Categories() []Category {
	return []Category{CategoryParty, CategoryBaskets, CategoryToys, CategorySchoolKit}
}

// ParseCategory returns the Category for s, or false if s is not one of the
// closed enumeration.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryParty, CategoryBaskets, CategoryToys, CategorySchoolKit:
		return Category(s), true
	}
	return "", false
}

// Status is a token's lifecycle state. Pending is the only non-terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusUsed     Status = "used"
	StatusExpired  Status = "expired"
	StatusInactive Status = "inactive"
)

// Statuses lists every lifecycle state.
func Statuses() []Status {
	return []Status{StatusPending, StatusUsed, StatusExpired, StatusInactive}
}

// Token is a single-use redemption record. Code, Category, RecipientID,
// CreatedAt, ExpiresAt and Metadata are fixed at mint time; only Status and
// UsedAt ever change, and each changes at most once.
type Token struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Category    Category   `gorm:"type:varchar(32);index;not null" json:"category"`
	RecipientID string     `gorm:"type:varchar(128);index;not null" json:"recipient_id"`
	Status      Status     `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`
	Metadata    string     `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
}

func (Token) TableName() string { return "tokens" }

// IsUsable reports whether the token can still be redeemed. Callers must run
// the lazy expiry check first; this only inspects the recorded status.
func (t *Token) IsUsable() bool {
	return t.Status == StatusPending
}
