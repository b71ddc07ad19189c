package service

import (
	"fmt"
	"strings"

	apperror "lan-stream/internal/error"
	"lan-stream/internal/storage"
)

// SubmitRequest is an entry as sent by a client over the WebSocket.
// ID and Timestamp are only honoured for replays.
type SubmitRequest struct {
	ID        string       `json:"id,omitempty"`
	Content   string       `json:"content"`
	FileName  string       `json:"fileName,omitempty"`
	Kind      storage.Kind `json:"type"`
	FileSize  *int64       `json:"fileSize,omitempty"`
	IsReplay  bool         `json:"old"`
	Timestamp int64        `json:"timestamp,omitempty"`
}

// entryValidator holds what Validate needs to check a request
type entryValidator struct {
	tokens    TokenCounter
	maxTokens int
}

// ------------------------------------------------------------------------------------------------------
func (v entryValidator) Validate(r *SubmitRequest) error {
	switch r.Kind {
	case storage.KindText:
		return v.validateText(r)
	case storage.KindFile:
		return v.validateFile(r)
	default:
		return apperror.NewValidationError(
			fmt.Sprintf("unsupported entry type '%s': must be 'text' or 'file'", r.Kind),
			apperror.ErrUnsupportedKind,
		)
	}
}

// ------------------------------------------------------------------------------------------------------
func (v entryValidator) validateText(r *SubmitRequest) error {
	if strings.TrimSpace(r.Content) == "" {
		return apperror.NewValidationError("content cannot be empty", apperror.ErrEmptyContent)
	}
	if r.IsReplay || v.maxTokens <= 0 || v.tokens == nil {
		return nil
	}

	count, err := v.tokens.Count(r.Content)
	if err != nil {
		return apperror.NewInternalError("failed to count message tokens", err)
	}
	if count > v.maxTokens {
		return apperror.NewValidationError(
			fmt.Sprintf("message has %d tokens, limit is %d", count, v.maxTokens),
			apperror.ErrTooManyTokens,
		)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
// validateFile only admits replays. Upload is the single place a file entry
// enters the history, so each stored file has exactly one live reference and
// evicting it may delete the file.
func (v entryValidator) validateFile(r *SubmitRequest) error {
	if err := storage.ValidFileName(r.Content); err != nil {
		return apperror.NewValidationError("file entries must reference a stored file name", err)
	}
	if !r.IsReplay {
		return apperror.NewValidationError(
			fmt.Sprintf("file '%s' must be published through /upload", r.Content),
			apperror.ErrFileNotUploaded,
		)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
// Entry builds the history entry for the request. Fresh submissions get a
// new ID and timestamp; replays are carried through as sent.
func (r *SubmitRequest) Entry() storage.Entry {
	if r.IsReplay {
		return storage.Entry{
			ID:        r.ID,
			Content:   r.Content,
			FileName:  r.FileName,
			Kind:      r.Kind,
			FileSize:  r.FileSize,
			IsReplay:  true,
			Timestamp: r.Timestamp,
		}
	}

	return storage.NewTextEntry(r.Content)
}
