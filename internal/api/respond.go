package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/roach88/storefront/internal/shop"
)

// Error codes in response bodies.
const (
	codeBadRequest         = "bad_request"
	codeNotFound           = "not_found"
	codeDuplicateKey       = "duplicate_key"
	codeInvalid            = "invalid"
	codeEmptyCart          = "empty_cart"
	codeInsufficientStock  = "insufficient_stock"
	codeInvalidCredentials = "invalid_credentials"
	codePartialCascade     = "partial_cascade"
	codeInternal           = "internal"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestError is a malformed request that never reached the repository.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// statusOf maps err to an HTTP status and error code.
func statusOf(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, shop.ErrPartialCascade):
		return http.StatusInternalServerError, codePartialCascade
	case errors.Is(err, shop.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, shop.ErrDuplicateKey):
		return http.StatusConflict, codeDuplicateKey
	case errors.Is(err, shop.ErrEmptyCart):
		return http.StatusBadRequest, codeEmptyCart
	case errors.Is(err, shop.ErrInsufficientStock):
		return http.StatusBadRequest, codeInsufficientStock
	case errors.Is(err, shop.ErrInvalid):
		return http.StatusBadRequest, codeInvalid
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if code == codeInternal {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	if werr := writeJSON(w, status, errorBody{Error: apiError{Code: code, Message: msg}}); werr != nil {
		s.logger.Error("write error response", "error", werr)
	}
}

// writeJSON encodes v as indented JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// decodeJSON reads exactly one JSON object from the request body into v.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("decode request body: %v", err)
	}
	if decoder.More() {
		return badRequest("request body has trailing data")
	}
	return nil
}

// pathInt parses the named path segment as a positive integer.
func pathInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > shop.MaxInt {
		return 0, badRequest("%s must be an integer from 1 to %d, got %q", name, shop.MaxInt, raw)
	}
	return n, nil
}

// nonNil turns a nil slice into an empty one so it encodes as [].
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
