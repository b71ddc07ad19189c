package service

import (
	"context"
	"io"

	"lan-stream/internal/storage"
)

// RelayService defines the operations behind the HTTP and WebSocket API
type RelayService interface {
	Submit(ctx context.Context, req *SubmitRequest) (storage.Entry, error)
	Upload(ctx context.Context, fileName string, r io.Reader) (storage.Entry, error)
	History() []storage.Entry
	HistoryPage(q HistoryQuery) HistoryPage
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	QRCode(ctx context.Context, width, height int) ([]byte, error)
}

// Broadcaster delivers accepted entries to connected clients
type Broadcaster interface {
	Broadcast(entry storage.Entry) error
}

// FileStore is the upload storage used by the service
type FileStore interface {
	Save(originalName string, r io.Reader) (string, int64, error)
}

// QRRenderer renders a QR code PNG
type QRRenderer interface {
	PNG(content string, width, height int) ([]byte, error)
}

// TokenCounter counts tokens in a text message
type TokenCounter interface {
	Count(text string) (int, error)
}
