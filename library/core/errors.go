package core

import "errors"

// The error taxonomy shared by all stores and handlers. Callers test with errors.Is;
// details are attached with fmt.Errorf("%w: ...") and causes with errors.Join.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrInsufficientCopies = errors.New("no copy available")
	ErrStorage            = errors.New("storage failure")
)
