package error

import "errors"

var (
	ErrEmptyContent    = errors.New("content cannot be empty")
	ErrUnsupportedKind = errors.New("unsupported entry type")
	ErrTooManyTokens   = errors.New("message exceeds token limit")
	ErrMissingFile     = errors.New("missing file in upload")
	ErrNotFound        = errors.New("not found")
	ErrFileNotUploaded = errors.New("file entries are published by upload")
)
