package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound         = errors.New("record not found")
	ErrAlreadyPublished = errors.New("final score already published")
	ErrMissingReference = errors.New("referenced record does not exist")
)
