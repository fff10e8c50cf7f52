package services

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidType  = errors.New("invalid notification type")
	// ErrMuted: người nhận đã tắt loại thông báo này trong preferences.
	ErrMuted = errors.New("recipient muted this notification category")
)
