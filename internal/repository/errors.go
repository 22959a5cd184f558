package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when an entity key is already taken.
	ErrAlreadyExists = errors.New("entity already exists")
)
