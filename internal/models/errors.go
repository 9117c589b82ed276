package models

import (
	"errors"
	"fmt"
)

// Общие ошибки приложения
var (
	// Хранилище
	ErrNotFound       = errors.New("resource not found")
	ErrStageNotFound  = fmt.Errorf("stage: %w", ErrNotFound)
	ErrEntityNotFound = fmt.Errorf("entity: %w", ErrNotFound)
	ErrRootIsStub     = errors.New("root scene is a stub")

	// Аутентификация
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Запросы
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidInput = errors.New("invalid input data")
	ErrEmptyCommand = errors.New("command input is empty")
)
