package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lightera/qrhub/internal/model"
	"lightera/qrhub/internal/service"
	"lightera/qrhub/pkg/response"
)

// Stable machine-readable error kinds. Each failure maps to exactly one kind;
// a station must be able to tell "not found" from "expired" from "used".
const (
	errKindNotFound        = "not_found"
	errKindInvalidCategory = "invalid_category"
	errKindDuplicateCode   = "duplicate_code"
	errKindAlreadyUsed     = "already_used"
	errKindExpired         = "expired"
	errKindInactive        = "inactive"
	errKindNotCancellable  = "not_cancellable"
	errKindPersistence     = "persistence_error"
)

type TokenHandler struct {
	tokenService service.TokenService
}

func NewTokenHandler(tokenService service.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: tokenService}
}

type MintRequest struct {
	Category      string `json:"category" binding:"required"`
	RecipientID   string `json:"recipient_id" binding:"required"`
	DurationHours int    `json:"duration_hours"`
	Metadata      string `json:"metadata"`
}

type MintResponse struct {
	Code      string         `json:"code"`
	Category  model.Category `json:"category"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type ValidateResponse struct {
	Found       bool           `json:"found"`
	State       model.Status   `json:"state"`
	Category    model.Category `json:"category"`
	RecipientID string         `json:"recipient_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UsedAt      *time.Time     `json:"used_at,omitempty"`
	ExpiresAt   time.Time      `json:"expires_at"`
	IsUsable    bool           `json:"is_usable"`
}

type RedeemResponse struct {
	Success     bool           `json:"success"`
	RecipientID string         `json:"recipient_id,omitempty"`
	Category    model.Category `json:"category,omitempty"`
	Metadata    string         `json:"metadata,omitempty"`
	UsedAt      *time.Time     `json:"used_at,omitempty"`
	ErrorKind   string         `json:"error_kind,omitempty"`
}

type TokenSummary struct {
	Code      string         `json:"code"`
	Category  model.Category `json:"category"`
	State     model.Status   `json:"state"`
	CreatedAt time.Time      `json:"created_at"`
	UsedAt    *time.Time     `json:"used_at,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Mint issues a new pending token. A non-positive duration is legal and
// produces a token that expires on first validation.
func (h *TokenHandler) Mint(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	duration := time.Duration(req.DurationHours) * time.Hour
	token, err := h.tokenService.Mint(c.Request.Context(), req.Category, req.RecipientID, duration, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCategory):
			response.ErrorKind(c, http.StatusBadRequest, errKindInvalidCategory, err.Error(), nil)
		case errors.Is(err, service.ErrDuplicateCode):
			response.ErrorKind(c, http.StatusConflict, errKindDuplicateCode, err.Error(), nil)
		default:
			response.ErrorKind(c, http.StatusInternalServerError, errKindPersistence, "failed to mint token", nil)
		}
		return
	}

	response.Success(c, MintResponse{
		Code:      token.Code,
		Category:  token.Category,
		ExpiresAt: token.ExpiresAt,
	})
}

// Validate reports a token's current state without consuming it. Safe and
// idempotent on used, expired and inactive tokens; the only write it can
// trigger is the lazy pending→expired flip.
func (h *TokenHandler) Validate(c *gin.Context) {
	code := c.Param("code")

	result, err := h.tokenService.Validate(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			response.ErrorKind(c, http.StatusNotFound, errKindNotFound, err.Error(), gin.H{"found": false})
			return
		}
		response.ErrorKind(c, http.StatusInternalServerError, errKindPersistence, "failed to validate token", nil)
		return
	}

	token := result.Token
	response.Success(c, ValidateResponse{
		Found:       true,
		State:       token.Status,
		Category:    token.Category,
		RecipientID: token.RecipientID,
		CreatedAt:   token.CreatedAt,
		UsedAt:      token.UsedAt,
		ExpiresAt:   token.ExpiresAt,
		IsUsable:    result.IsUsable,
	})
}

// Redeem consumes a pending token exactly once.
func (h *TokenHandler) Redeem(c *gin.Context) {
	code := c.Param("code")

	token, err := h.tokenService.Redeem(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			response.ErrorKind(c, http.StatusNotFound, errKindNotFound, err.Error(), RedeemResponse{ErrorKind: errKindNotFound})
		case errors.Is(err, service.ErrTokenUsed):
			response.ErrorKind(c, http.StatusConflict, errKindAlreadyUsed, err.Error(), RedeemResponse{
				ErrorKind: errKindAlreadyUsed,
				UsedAt:    token.UsedAt,
			})
		case errors.Is(err, service.ErrTokenExpired):
			response.ErrorKind(c, http.StatusConflict, errKindExpired, err.Error(), RedeemResponse{ErrorKind: errKindExpired})
		case errors.Is(err, service.ErrTokenInactive):
			response.ErrorKind(c, http.StatusConflict, errKindInactive, err.Error(), RedeemResponse{ErrorKind: errKindInactive})
		default:
			response.ErrorKind(c, http.StatusInternalServerError, errKindPersistence, "failed to redeem token", nil)
		}
		return
	}

	response.Success(c, RedeemResponse{
		Success:     true,
		RecipientID: token.RecipientID,
		Category:    token.Category,
		Metadata:    token.Metadata,
		UsedAt:      token.UsedAt,
	})
}

// Cancel retires a pending token before it is redeemed (lost QR printout,
// recipient left the program). Terminal, like used and expired.
func (h *TokenHandler) Cancel(c *gin.Context) {
	code := c.Param("code")

	token, err := h.tokenService.Cancel(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			response.ErrorKind(c, http.StatusNotFound, errKindNotFound, err.Error(), nil)
		case errors.Is(err, service.ErrNotCancellable):
			response.ErrorKind(c, http.StatusConflict, errKindNotCancellable, err.Error(), gin.H{"state": token.Status})
		default:
			response.ErrorKind(c, http.StatusInternalServerError, errKindPersistence, "failed to cancel token", nil)
		}
		return
	}

	response.Success(c, gin.H{"code": token.Code, "state": token.Status})
}

// ListByRecipient returns a recipient's tokens, newest first.
func (h *TokenHandler) ListByRecipient(c *gin.Context) {
	recipientID := c.Param("recipient_id")

	tokens, err := h.tokenService.ListByRecipient(c.Request.Context(), recipientID)
	if err != nil {
		response.ErrorKind(c, http.StatusInternalServerError, errKindPersistence, "failed to list tokens", nil)
		return
	}

	summaries := make([]TokenSummary, 0, len(tokens))
	for _, t := range tokens {
		summaries = append(summaries, TokenSummary{
			Code:      t.Code,
			Category:  t.Category,
			State:     t.Status,
			CreatedAt: t.CreatedAt,
			UsedAt:    t.UsedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}
	response.Success(c, gin.H{"recipient_id": recipientID, "tokens": summaries})
}

// Stats returns per-category, per-status token counts.
func (h *TokenHandler) Stats(c *gin.Context) {
	stats, err := h.tokenService.Stats(c.Request.Context())
	if err != nil {
		response.ErrorKind(c, http.StatusInternalServerError, errKindPersistence, "failed to compute stats", nil)
		return
	}
	response.Success(c, stats)
}
