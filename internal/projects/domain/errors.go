package domain

import "errors"

var (
	ErrNotFound      = errors.New("project not found")
	ErrDuplicateName = errors.New("project name already exists")
	ErrValidation    = errors.New("validation failed")
)
