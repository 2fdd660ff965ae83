// Package respond provides shared JSON response utilities for API handlers.
// Every body is wrapped in the envelope {"success":true,"data":...} or
// {"success":false,"error":{...}}.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ErrorResponse is the standard error shape for all API errors.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody carries a machine-readable code and a human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// DataResponse is the success envelope.
type DataResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Skip    int  `json:"skip"`
	HasMore bool `json:"hasMore"`
}

// Envelope marshals v into a success envelope. Used when the body is cached.
func Envelope(v interface{}) ([]byte, error) {
	return json.Marshal(DataResponse{Success: true, Data: v})
}

// WriteData writes v inside a success envelope.
func WriteData(w http.ResponseWriter, status int, v interface{}) {
	writeObject(w, status, DataResponse{Success: true, Data: v})
}

// WriteMessage writes v inside a success envelope with a message.
func WriteMessage(w http.ResponseWriter, status int, message string, v interface{}) {
	writeObject(w, status, DataResponse{Success: true, Data: v, Message: message})
}

// WritePage writes one page of a list inside a success envelope.
func WritePage(w http.ResponseWriter, v interface{}, total, limit, skip int) {
	writeObject(w, http.StatusOK, DataResponse{
		Success: true,
		Data:    v,
		Pagination: &Pagination{
			Total:   total,
			Limit:   limit,
			Skip:    skip,
			HasMore: total > skip+limit,
		},
	})
}

// WriteJSON writes pre-encoded envelope bytes with cache and ETag headers.
// Bodies are per user, so caches are told to keep them private.
func WriteJSON(w http.ResponseWriter, data []byte, etag string, ttl time.Duration, cacheHit bool) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	w.Header().Set("Vary", "Accept-Encoding, Authorization")
	setCacheHeaders(w, ttl, cacheHit)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WriteNotModified sends a 304 with the matching ETag.
func WriteNotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
}

// WriteError sends a structured JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorDetail(w, status, code, message, "")
}

// WriteErrorDetail sends a structured error with additional detail.
func WriteErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeObject(w, status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message, Detail: detail},
	})
}

func writeObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func setCacheHeaders(w http.ResponseWriter, ttl time.Duration, cacheHit bool) {
	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(ttl.Seconds())))
}
