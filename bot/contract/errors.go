package contract

import "errors"

var (
	ErrStorageCorrupt     = errors.New("storage corrupt")
	ErrStorageWriteFailed = errors.New("storage write failed")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrChannelSend        = errors.New("channel send failed")
	ErrTransport          = errors.New("channel transport failure")
	ErrHandlerFault       = errors.New("handler fault")
	ErrValidation         = errors.New("validation failed")
)
