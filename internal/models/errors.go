package models

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid arguments")
	ErrInvalidBackupName = errors.New("invalid backup name")
	ErrBackupUnsupported = errors.New("backups require the sqlite driver")
)
