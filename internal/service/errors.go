package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNoFile         = errors.New("no file uploaded")
	ErrInvalidFile    = errors.New("invalid file")
	ErrFileNameNeeded = errors.New("file name is required")
	ErrEmptyStream    = errors.New("file stream is empty")
)

// ValidationError - не заполнено обязательное поле записи.
type ValidationError struct {
	Entity string
	Field  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s data: %s is required", e.Entity, e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError - запись в хранилище не удалась.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store.%s [%s]: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PublishError - уведомление не отправлено в очередь. Только логируется.
type PublishError struct {
	Queue string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish [%s]: %v", e.Queue, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// UploadError - загрузка в контейнер или шару не удалась.
type UploadError struct {
	Target string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload [%s]: %v", e.Target, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
