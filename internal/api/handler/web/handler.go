// internal/api/handler/web/handler.go
package web

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"text/template"

	"github.com/newthinker/rbin/internal/api/response"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

const usagePage = "usage.txt"

// EnvVarHelp is one configuration line of the usage page.
type EnvVarHelp struct {
	Name    string
	Default string
}

// Options configures the usage page.
type Options struct {
	FormField    string
	MaxBodyBytes int64
	Vars         []EnvVarHelp
}

// UsageData holds data for the usage template
type UsageData struct {
	BaseURL      string
	Field        string
	MaxBodyBytes int64
	Vars         []EnvVarHelp
}

// Handler renders the plain-text usage help served at the root path.
type Handler struct {
	tmpl   *template.Template
	opts   Options
	logger *zap.Logger
}

// NewHandler creates a usage handler backed by the embedded templates.
func NewHandler(opts Options, logger *zap.Logger) (*Handler, error) {
	return NewHandlerWithFS(TemplateFS(), opts, logger)
}

// NewHandlerWithFS creates a usage handler using a custom filesystem.
func NewHandlerWithFS(fsys fs.FS, opts Options, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(fsys, usagePage)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", usagePage, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{tmpl: tmpl, opts: opts, logger: logger}, nil
}

// Usage renders the usage page.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	data := UsageData{
		BaseURL:      response.BaseURL(r),
		Field:        h.opts.FormField,
		MaxBodyBytes: h.opts.MaxBodyBytes,
		Vars:         h.opts.Vars,
	}

	// render into a buffer so a template failure still yields a clean 500
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, usagePage, data); err != nil {
		h.logger.Error("rendering usage page", zap.Error(err))
		response.Text(w, http.StatusInternalServerError, "an internal error occurred\n")
		return
	}
	buf.WriteByte('\n')
	response.Bytes(w, http.StatusOK, buf.Bytes())
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return templateFS
	}
	return subFS
}
