package data

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrForbidden        = errors.New("forbidden")
	ErrBadRequest       = errors.New("bad request")
	ErrMutateDisabled   = errors.New("mutation disabled")
)
