package storage

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a history entry.
type Kind string

const (
	KindText Kind = "text"
	KindFile Kind = "file"

	// KindClear is only ever broadcast, never stored.
	KindClear Kind = "clear"
)

// Entry is one item of the shared history: a text message or a reference
// to an uploaded file. Fields are not modified after construction.
type Entry struct {
	ID        string `json:"id,omitempty"`
	Content   string `json:"content"`
	FileName  string `json:"fileName,omitempty"`
	Kind      Kind   `json:"type"`
	FileSize  *int64 `json:"fileSize,omitempty"`
	IsReplay  bool   `json:"old"`
	Timestamp int64  `json:"timestamp"`
}

// now is swapped in tests.
var now = time.Now

// ------------------------------------------------------------------------------------------------------
// NewTextEntry builds a fresh text entry stamped with the current time.
func NewTextEntry(content string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Content:   content,
		Kind:      KindText,
		Timestamp: now().UnixMilli(),
	}
}

// ------------------------------------------------------------------------------------------------------
// NewFileEntry builds a fresh file entry. storedName is the key used by the
// file store, fileName is what the client uploaded it as.
func NewFileEntry(storedName, fileName string, size int64) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Content:   storedName,
		FileName:  fileName,
		Kind:      KindFile,
		FileSize:  &size,
		Timestamp: now().UnixMilli(),
	}
}

// ------------------------------------------------------------------------------------------------------
// NewClearEntry builds the control message telling clients to drop their history.
func NewClearEntry() Entry {
	return Entry{Kind: KindClear, Timestamp: now().UnixMilli()}
}

// ------------------------------------------------------------------------------------------------------
// FileBacked reports whether removing this entry must delete a stored file.
// Content is the storage key; FileName is display only.
func (e Entry) FileBacked() bool {
	return e.Kind == KindFile && e.Content != ""
}

// ------------------------------------------------------------------------------------------------------
// Time returns the construction timestamp.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}
