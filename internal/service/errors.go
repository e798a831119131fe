package service

import "errors"

// Error taxonomy. Handlers map these onto HTTP statuses: validation 400,
// auth 401, not-found 404, upstream and anything else 500.
var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("invalid credentials")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream scoring service failed")
)
