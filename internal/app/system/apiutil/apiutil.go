// Package apiutil writes the standard JSON response envelope.
//
// Every endpoint responds with {success, message?, data?, error?}; list
// endpoints add count/total/page/pages. Failures route through Fail so the
// apierr taxonomy is mapped to HTTP status codes in exactly one place.
package apiutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies. Uploads do not go through here.
const maxBodyBytes = 1 << 20

// Envelope is the standard response shape.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	Count *int   `json:"count,omitempty"`
	Total *int64 `json:"total,omitempty"`
	Page  *int   `json:"page,omitempty"`
	Pages *int   `json:"pages,omitempty"`
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// List writes a 200 paged-list envelope.
func List(w http.ResponseWriter, data any, count int, total int64, page, pages int) {
	write(w, http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Count:   &count,
		Total:   &total,
		Page:    &page,
		Pages:   &pages,
	})
}

// Fail maps err through the apierr taxonomy and writes the failure envelope.
// Server-kind errors are logged with their cause; the caller only sees the
// generic message.
func Fail(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apierr.HTTPStatus(err)
	if status == http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	write(w, status, Envelope{Success: false, Message: apierr.MessageOf(err)})
}

// DecodeJSON decodes a request body into dst with a size cap.
func DecodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierr.Invalid("request body is required")
		}
		return apierr.Invalid("malformed JSON body")
	}
	return nil
}
