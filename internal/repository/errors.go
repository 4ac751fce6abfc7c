package repository

import "errors"

var (
	ErrNotFound       = errors.New("entity not found")
	ErrAlreadyExists  = errors.New("entity already exists")
	ErrOptimisticLock = errors.New("conditional update lost: data was modified by another process")
)
