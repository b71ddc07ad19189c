package handlers

import (
	"errors"
	"net/http"
	"strconv"

	apperror "lan-stream/internal/error"
	"lan-stream/internal/service"
	"lan-stream/internal/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const multipartMemory = 8 << 20

// ------------------------------------------------------------------------------------------------------
// HistoryHandler returns the whole shared history, oldest first, for clients catching up.
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.relay.History())
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) HistoryPageHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := intParam(query.Get("limit"), 0)
	if err != nil {
		h.sendErrorResponse(w, apperror.NewValidationError("limit must be an integer", err))
		return
	}
	offset, err := intParam(query.Get("offset"), 0)
	if err != nil {
		h.sendErrorResponse(w, apperror.NewValidationError("offset must be an integer", err))
		return
	}

	page := h.relay.HistoryPage(service.HistoryQuery{
		Kind:   storage.Kind(query.Get("type")),
		Limit:  limit,
		Offset: offset,
	})
	h.writeJSON(w, http.StatusOK, page)
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) DeleteEntryHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.relay.Delete(r.Context(), id); err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) ClearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.relay.Clear(r.Context()); err != nil {
		h.logger.Error("Failed to clear history", zap.Error(err))
		h.sendErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ------------------------------------------------------------------------------------------------------
// UploadHandler stores the multipart "file" field and publishes it as a file entry.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendErrorResponse(w, apperror.NewPayloadTooLargeError("upload exceeds size limit", err))
			return
		}
		h.sendErrorResponse(w, apperror.NewValidationError("invalid multipart form", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendErrorResponse(w, apperror.NewValidationError("form field 'file' is required", apperror.ErrMissingFile))
		return
	}
	defer file.Close()

	entry, err := h.relay.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("Upload failed", zap.String("file_name", header.Filename), zap.Error(err))
		h.sendErrorResponse(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, entry)
}

// ------------------------------------------------------------------------------------------------------
// QRHandler renders the relay's own address so phones can join by scanning.
func (h *Handler) QRHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	width, err := intParam(query.Get("width"), service.DefaultQRSize)
	if err != nil {
		h.sendErrorResponse(w, apperror.NewValidationError("width must be an integer", err))
		return
	}
	height, err := intParam(query.Get("height"), service.DefaultQRSize)
	if err != nil {
		h.sendErrorResponse(w, apperror.NewValidationError("height must be an integer", err))
		return
	}

	png, err := h.relay.QRCode(r.Context(), width, height)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusCreated)
	if _, err := w.Write(png); err != nil {
		h.logger.Error("Failed to write qr code", zap.Error(err))
	}
}

// ------------------------------------------------------------------------------------------------------
func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
