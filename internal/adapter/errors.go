package adapter

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrUnprocessable       = errors.New("unprocessable request")
	ErrServiceUnavailable  = errors.New("data stores are unavailable")
	ErrInternalServerError = errors.New("internal server error")
	ErrInvalidAddress      = errors.New("invalid server address")
)
