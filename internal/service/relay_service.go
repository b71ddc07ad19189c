package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	apperror "lan-stream/internal/error"
	"lan-stream/internal/storage"

	"go.uber.org/zap"
)

const (
	DefaultQRSize = 100
	MaxQRSize     = 1024
)

// Dependencies are the collaborators injected into the relay service.
// Cache and Tokens may be nil.
type Dependencies struct {
	Store  storage.HistoryStore
	Files  FileStore
	Hub    Broadcaster
	Cache  storage.CacheStore
	QR     QRRenderer
	Tokens TokenCounter
}

// Options holds the relay service settings
type Options struct {
	MaxMessageTokens int
	HostURL          string
	QRCacheTTL       time.Duration
}

// relayService accepts entries into the shared history and broadcasts them
type relayService struct {
	store     storage.HistoryStore
	files     FileStore
	hub       Broadcaster
	cache     storage.CacheStore
	qr        QRRenderer
	validator entryValidator
	opts      Options
	logger    *zap.Logger
}

// ------------------------------------------------------------------------------------------------------
// NewRelayService creates a relay service with injected dependencies
func NewRelayService(deps Dependencies, opts Options, logger *zap.Logger) RelayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &relayService{
		store: deps.Store,
		files: deps.Files,
		hub:   deps.Hub,
		cache: deps.Cache,
		qr:    deps.QR,
		validator: entryValidator{
			tokens:    deps.Tokens,
			maxTokens: opts.MaxMessageTokens,
		},
		opts:   opts,
		logger: logger,
	}
}

// ------------------------------------------------------------------------------------------------------
// Submit validates a client entry, records it and broadcasts the result.
func (s *relayService) Submit(ctx context.Context, req *SubmitRequest) (storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return storage.Entry{}, err
	}
	if err := s.validator.Validate(req); err != nil {
		return storage.Entry{}, err
	}

	accepted := s.store.Insert(req.Entry())
	s.broadcast(accepted)
	return accepted, nil
}

// ------------------------------------------------------------------------------------------------------
// Upload stores the file and publishes a file entry pointing at it.
func (s *relayService) Upload(ctx context.Context, fileName string, r io.Reader) (storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return storage.Entry{}, err
	}

	display := filepath.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if display == "." || display == "/" || strings.TrimSpace(display) == "" {
		return storage.Entry{}, apperror.NewValidationError("upload has no file name", apperror.ErrMissingFile)
	}

	stored, size, err := s.files.Save(display, r)
	if err != nil {
		return storage.Entry{}, apperror.NewStorageError("failed to store upload", err)
	}

	accepted := s.store.Insert(storage.NewFileEntry(stored, display, size))
	s.logger.Info("File uploaded",
		zap.String("id", accepted.ID),
		zap.String("file_name", display),
		zap.String("stored_as", stored),
		zap.Int64("size", size),
	)
	s.broadcast(accepted)
	return accepted, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *relayService) History() []storage.Entry {
	return s.store.Snapshot()
}

// ------------------------------------------------------------------------------------------------------
func (s *relayService) HistoryPage(q HistoryQuery) HistoryPage {
	return paginate(s.store.Snapshot(), q)
}

// ------------------------------------------------------------------------------------------------------
func (s *relayService) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	removed, ok := s.store.Remove(id)
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("entry '%s' not found", id), apperror.ErrNotFound)
	}

	s.logger.Info("History entry deleted",
		zap.String("id", removed.ID),
		zap.String("type", string(removed.Kind)),
	)
	return nil
}

// ------------------------------------------------------------------------------------------------------
// Clear empties the history and tells every client to do the same.
func (s *relayService) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	removed := s.store.Clear()
	s.logger.Info("History cleared", zap.Int("removed", len(removed)))
	s.broadcast(storage.NewClearEntry())
	return nil
}

// ------------------------------------------------------------------------------------------------------
// QRCode renders the advertised host URL, caching the PNG per size.
func (s *relayService) QRCode(ctx context.Context, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 || width > MaxQRSize || height > MaxQRSize {
		return nil, apperror.NewValidationError(
			fmt.Sprintf("width and height must be between 1 and %d", MaxQRSize),
			nil,
		)
	}

	key := s.qrCacheKey(width, height)
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		if err == nil && found {
			return cached, nil
		}
		if err != nil {
			s.logger.Warn("QR cache lookup failed", zap.Error(err))
		}
	}

	png, err := s.qr.PNG(s.opts.HostURL, width, height)
	if err != nil {
		return nil, apperror.NewInternalError("failed to render qr code", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, png, s.opts.QRCacheTTL); err != nil {
			s.logger.Warn("QR cache store failed", zap.Error(err))
		}
	}
	return png, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *relayService) qrCacheKey(width, height int) string {
	hash := sha256.Sum256([]byte(s.opts.HostURL))
	return fmt.Sprintf("qr:%dx%d:%s", width, height, hex.EncodeToString(hash[:8]))
}

// ------------------------------------------------------------------------------------------------------
// broadcast is best effort: the entry is already in the history.
func (s *relayService) broadcast(entry storage.Entry) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Broadcast(entry); err != nil {
		s.logger.Warn("Broadcast failed",
			zap.String("id", entry.ID),
			zap.Error(err),
		)
	}
}
