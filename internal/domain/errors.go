package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidPosition = errors.New("invalid position parameters")
	ErrInvalidCluster  = errors.New("invalid cluster parameters")
	ErrTooManyMarkets  = errors.New("too many distinct markets")
	ErrLockHeld        = errors.New("lock already held")
)
