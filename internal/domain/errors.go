package domain

import "errors"

var (
	ErrFamiliarNotFound  = errors.New("familiar not found")
	ErrInvalidFamiliarID = errors.New("invalid familiar id")
	ErrTurnNotFound      = errors.New("turn not found")
	ErrNotUserTurn       = errors.New("turn is not a user turn")
	ErrActivityNotFound  = errors.New("activity not found")
	ErrUnknownCycleMode  = errors.New("unknown cycle mode")
	ErrInvalidInput      = errors.New("invalid input")
	ErrCorruptDocument   = errors.New("corrupt document")
)
