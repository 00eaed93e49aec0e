package board

import (
	"context"
	"errors"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/ButyrinIA/board/internal/storage"
)

var (
	ErrNotFound        = storage.ErrNotFound
	ErrInvalidArgument = errors.New("invalid argument")
)

// Code - класс ошибки на границе сервиса
type Code string

const (
	CodeOK              Code = "OK"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeCancelled       Code = "CANCELLED"
	CodeInternal        Code = "INTERNAL"
)

func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, models.ErrUnknownAction),
		errors.Is(err, models.ErrBadUpdateRequest):
		return CodeInvalidArgument
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	}
	return CodeInternal
}
