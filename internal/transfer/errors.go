package transfer

import "errors"

var (
	ErrChannelNotOpen   = errors.New("channel not open")
	ErrChannelClosed    = errors.New("channel closed")
	ErrTransferNotFound = errors.New("transfer not found")
	ErrEmptyMessage     = errors.New("empty chat message")
)
