package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNoItems           = errors.New("items list cannot be empty")
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrAllItemsFailed    = errors.New("no images were successfully downloaded")
)
