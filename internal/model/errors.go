package model

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCacheMiss is returned by a Cache when the key holds no value.
	ErrCacheMiss = errors.New("cache miss")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user already exists")
)
