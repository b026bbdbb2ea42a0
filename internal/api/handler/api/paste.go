// internal/api/handler/api/paste.go
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/newthinker/rbin/internal/api/response"
	"github.com/newthinker/rbin/internal/core"
	"github.com/newthinker/rbin/internal/metrics"
	"go.uber.org/zap"
)

// DefaultFormField is the form field carrying paste content.
const DefaultFormField = "rbin"

// PasteStore creates and resolves pastes.
type PasteStore interface {
	Create(ctx context.Context, content []byte) (string, error)
	Read(ctx context.Context, id string) ([]byte, error)
}

// PasteOptions configures a PasteHandler.
type PasteOptions struct {
	FormField    string
	MaxBodyBytes int64
}

// PasteHandler serves paste creation and retrieval.
type PasteHandler struct {
	store   PasteStore
	field   string
	maxBody int64
	logger  *zap.Logger
}

// NewPasteHandler creates a new paste handler. A non-positive MaxBodyBytes
// disables the upload limit.
func NewPasteHandler(store PasteStore, opts PasteOptions, logger *zap.Logger) *PasteHandler {
	if opts.FormField == "" {
		opts.FormField = DefaultFormField
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasteHandler{
		store:   store,
		field:   opts.FormField,
		maxBody: opts.MaxBodyBytes,
		logger:  logger,
	}
}

// Create stores the submitted form field and answers with the paste URL.
func (h *PasteHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	content, err := h.readContent(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(content) == 0 {
		h.fail(w, r, core.ErrEmptyPaste)
		return
	}

	id, err := h.store.Create(r.Context(), content)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Location", "/"+id)
	response.Text(w, http.StatusOK, response.BaseURL(r)+"/"+id+"\n")
}

// Get returns the raw bytes of a paste.
func (h *PasteHandler) Get(w http.ResponseWriter, r *http.Request) {
	content, err := h.store.Read(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Bytes(w, http.StatusOK, content)
}

func (h *PasteHandler) readContent(r *http.Request) ([]byte, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, core.WrapError(core.ErrBadRequest, fmt.Errorf("content type: %w", err))
	}

	switch mediaType {
	case "multipart/form-data":
		return h.readMultipart(r)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		values, ok := r.PostForm[h.field]
		if !ok {
			return nil, core.WrapError(core.ErrMissingField, fmt.Errorf("field %q", h.field))
		}
		return []byte(values[0]), nil
	default:
		return nil, core.WrapError(core.ErrBadRequest, fmt.Errorf("unsupported content type %q", mediaType))
	}
}

// readMultipart streams parts until the paste field, so only that field
// is held in memory.
func (h *PasteHandler) readMultipart(r *http.Request) ([]byte, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, bodyError(err)
	}

	for {
		part, err := mr.NextPart()
		// a bare io.EOF marks the closing boundary; wrapped EOFs are truncation
		if err == io.EOF {
			return nil, core.WrapError(core.ErrMissingField, fmt.Errorf("field %q", h.field))
		}
		if err != nil {
			return nil, bodyError(err)
		}

		if part.FormName() != h.field {
			_, err := io.Copy(io.Discard, part)
			part.Close()
			if err != nil {
				return nil, bodyError(err)
			}
			continue
		}

		content, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, bodyError(err)
		}
		return content, nil
	}
}

// bodyError classifies a failure while reading the request body.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return core.WrapError(core.ErrPasteTooLarge, fmt.Errorf("limit %d bytes", maxErr.Limit))
	}
	return core.WrapError(core.ErrBadRequest, err)
}

func (h *PasteHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := response.StatusFor(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("request_id", metrics.RequestID(r.Context())),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Debug("request rejected", fields...)
	}
	response.Error(w, status, err)
}
