package response

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in APIError.Code
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
)

// APIResponse is the envelope of every response body. Exactly one of Data
// and Error is set; Meta accompanies list payloads only.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// APIError describes a failed request
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta describes a list payload. Total is the number of items in the
// collection, which list endpoints return unpaginated.
type Meta struct {
	Total int `json:"total"`
}

func write(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already out, nothing useful can be done on failure
	_ = json.NewEncoder(w).Encode(body)
}

// OK writes data with status 200
func OK(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// Created writes a newly created resource with status 201
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, APIResponse{Success: true, Data: data})
}

// List writes a collection with status 200 and its size in meta.total
func List[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	write(w, http.StatusOK, APIResponse{Success: true, Data: items, Meta: &Meta{Total: len(items)}})
}

// Error writes an error envelope
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, APIResponse{Error: &APIError{Code: code, Message: message}})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, CodeNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, CodeConflict, message)
}

func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, CodeInternal, message)
}
