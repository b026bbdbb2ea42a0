// internal/api/response/response.go
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/newthinker/rbin/internal/core"
)

// ContentTypeText is used for every body the service writes.
const ContentTypeText = "text/plain; charset=utf-8"

// ErrorCodeHeader carries the core error code of a failed request.
const ErrorCodeHeader = "X-Error-Code"

// Text writes a plain-text response.
func Text(w http.ResponseWriter, status int, body string) {
	Bytes(w, status, []byte(body))
}

// Bytes writes raw bytes as plain text. nosniff keeps browsers from
// rendering stored pastes as HTML.
func Bytes(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", ContentTypeText)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}

// StatusFor maps an error to the HTTP status reported to the client.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidIdentifier),
		errors.Is(err, core.ErrEmptyPaste),
		errors.Is(err, core.ErrMissingField),
		errors.Is(err, core.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrPasteTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Error writes an error response. Client errors carry the core error
// message; server errors never expose their cause.
func Error(w http.ResponseWriter, status int, err error) {
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		code = coreErr.Code
		if status < http.StatusInternalServerError {
			message = coreErr.Message
		}
	}

	w.Header().Set(ErrorCodeHeader, code)
	Text(w, status, message+"\n")
}

// BaseURL returns scheme://host for links back to this service. The scheme
// comes from X-Forwarded-Proto, else https when the connection is TLS, else
// http. A request without a Host header renders as localhost.
func BaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		// proxies may append their own hop: "https, http"
		first, _, _ := strings.Cut(proto, ",")
		if first = strings.ToLower(strings.TrimSpace(first)); first == "http" || first == "https" {
			scheme = first
		}
	}

	host := r.Host
	if host == "" {
		host = "localhost"
	}
	return scheme + "://" + host
}
