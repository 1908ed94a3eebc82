package service

import (
	"errors"
	"fmt"
)

// ValidationError 业务校验失败。出现在任何持久化调用之前，不产生部分状态。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation err 是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError 存储协作方失败。多步操作中途失败时 Step 标出失败步骤
// （如 "item 3 of 5"），已完成的步骤不自动回滚，由调用方决定补救。
type StorageError struct {
	Op   string
	Step string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func storageStepErr(op, step string, err error) error {
	return &StorageError{Op: op, Step: step, Err: err}
}
