package handler

import "errors"

var (
	ErrFailedToDecodeRequestBody = errors.New("failed to decode request body")
	ErrNoFrame                   = errors.New("no frame has been rendered yet")
	InternalServerError          = errors.New("server encountered a problem and could not process your request")
)
