package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNotLoaded     = errors.New("mod not loaded")
	ErrAlreadyExists = errors.New("already exists")
)
