package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateReview  = errors.New("review already exists")
	ErrDuplicateAgency  = errors.New("agency with this name already exists")
	// ErrUnknownReference reports a write pointing at a row that does not exist.
	ErrUnknownReference = errors.New("select a valid choice")
)
