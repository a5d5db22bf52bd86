package rest

import "errors"

var (
	ErrNotFound     = errors.New("rest: resource not found")
	ErrRateLimited  = errors.New("rest: rate limited")
	ErrUnauthorized = errors.New("rest: unauthorized")
)
