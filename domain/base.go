package domain

import (
	"context"
	"errors"
	"mime/multipart"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrValidation      = errors.New("validation failed")
	ErrAncestorCycle   = errors.New("a member cannot be its own ancestor")
	ErrInvalidPhrase   = errors.New("confirmation phrase does not match")
	ErrUnsupportedFile = errors.New("uploaded file is not an image")
)

// Response is the envelope every handler writes.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type PhotoRepo interface {
	SavePhoto(ctx context.Context, photo *multipart.FileHeader) (string, error)
}
