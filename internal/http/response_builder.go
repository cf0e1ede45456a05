// Package http serves the session and ledger operations as a JSON API.
//
// This file implements the Builder Pattern for JSON responses so every
// handler writes the same envelope and maps errors the same way.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"myfinances/internal/core"
	"myfinances/internal/log"
)

const (
	kindBadRequest    = "BadRequest"
	kindNotConfigured = "NotConfigured"
	kindRateLimited   = "RateLimited"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response. A nil payload writes no body.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		http.Error(w, `{"error":{"kind":"Internal","message":"internal error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse creates an error envelope with the given kind and message.
func ErrorResponse(statusCode int, kind, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		JSON(errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// errorStatus maps the error taxonomy onto HTTP status codes.
func errorStatus(err error) (int, string) {
	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest, kindBadRequest
	}
	kind := core.KindOf(err)
	switch kind {
	case core.KindInvalidIdentity:
		return http.StatusUnauthorized, kind
	case core.KindAuthCancelled:
		return http.StatusBadRequest, kind
	case core.KindAuthExchangeFailed:
		return http.StatusBadGateway, kind
	case core.KindStorageUnavailable:
		return http.StatusServiceUnavailable, kind
	case core.KindValidation:
		return http.StatusUnprocessableEntity, kind
	case core.KindDuplicateRecord:
		return http.StatusConflict, kind
	case core.KindCancelled:
		return http.StatusServiceUnavailable, kind
	}
	return http.StatusInternalServerError, kind
}

// FromError builds the error response for err and logs it on the request
// logger. Server-side failures hide their detail from the client.
func FromError(r *http.Request, err error) *ResponseBuilder {
	status, kind := errorStatus(err)

	level := slog.LevelWarn
	message := err.Error()
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
		message = http.StatusText(status)
	}
	log.FromContext(r.Context()).Fields(r.Context(), level, "Request failed",
		log.NewFields().WithError(err).WithErrorKind(kind))

	b := ErrorResponse(status, kind, message)
	if status == http.StatusServiceUnavailable {
		b.Header("Retry-After", "5")
	}
	return b
}
