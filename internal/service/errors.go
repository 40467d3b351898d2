package service

import "errors"

var (
	ErrCodeNotFound    = errors.New("token code not found")
	ErrInvalidCategory = errors.New("invalid benefit category")
	ErrDuplicateCode   = errors.New("token code collision")
	ErrTokenUsed       = errors.New("token already used")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInactive   = errors.New("token inactive")
	ErrNotCancellable  = errors.New("token is not pending and cannot be cancelled")
)
