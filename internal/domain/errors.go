package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidSpan     = errors.New("invalid span: start must not be after end")
	ErrInvalidProgress = errors.New("invalid progress: must be in [0, 100]")
)
