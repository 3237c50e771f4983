package client

import "errors"

var (
	ErrUnavailable    = errors.New("server unavailable")
	ErrAlreadyExists  = errors.New("value already set on server")
	ErrInvalidRequest = errors.New("request rejected by server")
)
