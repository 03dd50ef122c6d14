package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/target/mmk-blog/internal/errors"
)

const errMsgGeneric = "An error occurred. Please try again."

// ErrorRenderer is a function that renders a page template with the given data.
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, data any)

// ErrorOpts contains everything needed to re-render a form after a failed submission.
type ErrorOpts struct {
	W http.ResponseWriter
	R *http.Request
	// Err is the error that occurred (optional, can be nil if only field errors)
	Err error
	// FieldErrors contains field-level validation errors (field name → error message)
	FieldErrors map[string]string
	// Renderer draws the page; typically a handler's renderPage method
	Renderer ErrorRenderer
	PageMeta PageMeta
	// Data preserves submitted form values
	Data map[string]any
}

// RenderError re-renders a form with a general message and any field errors.
func RenderError(opts ErrorOpts) {
	if opts.Renderer == nil {
		http.Error(opts.W, "misconfigured error renderer", http.StatusInternalServerError)
		return
	}

	builder := NewTemplateData(opts.R, opts.PageMeta)
	generalError := processError(opts.Err, &opts.FieldErrors)
	builder.WithFieldErrors(opts.FieldErrors).WithError(generalError)
	for k, v := range opts.Data {
		builder.With(k, v)
	}

	opts.Renderer(opts.W, opts.R, builder.Build())
}

// processError returns the message shown above the form and records a field
// error when the error names a field.
func processError(err error, fieldErrors *map[string]string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out. Please try again."
	}
	if errors.Is(err, context.Canceled) {
		return "Request was canceled."
	}
	if !isFormError(err) {
		return errMsgGeneric
	}

	msg := apperrors.UserMessage(err, errMsgGeneric)
	if field := apperrors.GetField(err); field != "" && fieldErrors != nil {
		if *fieldErrors == nil {
			*fieldErrors = make(map[string]string)
		}
		(*fieldErrors)[field] = msg
	}
	return msg
}

// isFormError reports whether err should be shown on the form the user
// submitted rather than as an error page.
func isFormError(err error) bool {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeConflict, apperrors.ErrCodeUnauthenticated:
		return true
	default:
		return false
	}
}

// statusForError maps an application error to the status of its error page.
func statusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorPages renders standalone error pages.
type ErrorPages struct {
	T      *TemplateRenderer
	Logger *slog.Logger
}

func (p *ErrorPages) logger() *slog.Logger {
	if p != nil && p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Write renders the error page for err. Server errors are logged and shown
// with a generic message; client errors show the error's own message.
func (p *ErrorPages) Write(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	msg := http.StatusText(status)
	if status >= http.StatusInternalServerError {
		p.logger().ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	} else {
		msg = apperrors.UserMessage(err, msg)
	}
	p.Status(w, r, status, msg)
}

// NotFound renders the 404 page.
func (p *ErrorPages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.Status(w, r, http.StatusNotFound, "The requested URL was not found on the server.")
}

// Status renders the error page with an explicit status and message.
func (p *ErrorPages) Status(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if p == nil || p.T == nil {
		http.Error(w, msg, status)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: http.StatusText(status)}).
		With("StatusCode", status).
		With("StatusText", http.StatusText(status)).
		With("Message", msg).
		Build()
	if err := p.T.RenderError(w, status, data); err != nil {
		http.Error(w, msg, status)
	}
}
