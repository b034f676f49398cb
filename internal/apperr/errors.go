package apperr

import "errors"

var (
	ErrSourceRoot     = errors.New("graph root has no pages or journals")
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotReady       = errors.New("graph not loaded")
)
