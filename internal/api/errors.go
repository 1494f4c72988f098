// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/john-james-ai/d8analysis/internal/api/middleware"
	"github.com/john-james-ai/d8analysis/internal/log"
)

// JSONKeyRequestID is the problem-details field carrying the request id.
const JSONKeyRequestID = "requestId"

// APIError is a stable machine-readable error. Code never changes once
// published, Message may be reworded.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common API error definitions
var (
	// Authentication/Authorization errors
	ErrUnauthorized = &APIError{
		Code:    "UNAUTHORIZED",
		Message: "Authentication required",
	}
	ErrForbidden = &APIError{
		Code:    "FORBIDDEN",
		Message: "Access denied",
	}

	// Resource errors
	ErrDatasetNotFound = &APIError{
		Code:    "DATASET_NOT_FOUND",
		Message: "Dataset not found",
	}
	ErrRunNotFound = &APIError{
		Code:    "RUN_NOT_FOUND",
		Message: "Profile run not found",
	}
	ErrReportNotFound = &APIError{
		Code:    "REPORT_NOT_FOUND",
		Message: "Profile report not found",
	}
	ErrColumnNotFound = &APIError{
		Code:    "COLUMN_NOT_FOUND",
		Message: "Column not found in dataset",
	}

	// Operation errors
	ErrProfileInProgress = &APIError{
		Code:    "PROFILE_IN_PROGRESS",
		Message: "A profile run is already in progress for this dataset",
	}
	ErrReportNotReady = &APIError{
		Code:    "REPORT_NOT_READY",
		Message: "Profile run has not produced a report yet",
	}
	ErrColumnKindMismatch = &APIError{
		Code:    "COLUMN_KIND_MISMATCH",
		Message: "Operation does not support this column kind",
	}
	ErrDatasetEmpty = &APIError{
		Code:    "DATASET_EMPTY",
		Message: "Dataset contains no parsable rows",
	}
	ErrDatasetChanged = &APIError{
		Code:    "DATASET_CHANGED",
		Message: "Dataset file changed on disk since registration",
	}
	ErrFitNotPossible = &APIError{
		Code:    "FIT_NOT_POSSIBLE",
		Message: "Distribution cannot be fitted to this column",
	}

	// Ingestion errors
	ErrPayloadTooLarge = &APIError{
		Code:    "PAYLOAD_TOO_LARGE",
		Message: "Upload exceeds the configured size limit",
	}
	ErrUnsupportedMediaType = &APIError{
		Code:    "UNSUPPORTED_MEDIA_TYPE",
		Message: "Unsupported content type",
	}
	ErrRemoteNotAllowed = &APIError{
		Code:    "REMOTE_NOT_ALLOWED",
		Message: "Remote URL is not permitted by the outbound policy",
	}
	ErrRemoteFetchFailed = &APIError{
		Code:    "REMOTE_FETCH_FAILED",
		Message: "Could not fetch dataset from remote URL",
	}

	// Validation errors
	ErrInvalidInput = &APIError{
		Code:    "INVALID_INPUT",
		Message: "Invalid input parameters",
	}

	// Generic errors
	ErrInternalServer = &APIError{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "An internal error occurred",
	}
	ErrServiceUnavailable = &APIError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: "Service temporarily unavailable",
	}
)

// writeJSON writes a JSON response with the given status code.
// If encoding fails, headers are already sent so we can't change the status
// code, but we log the error for debugging.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Base().Error().
			Err(err).
			Int("status", code).
			Msg("failed to encode JSON response - client may receive partial data")
	}
}

// decodeJSONBody decodes a JSON request body into dst, rejecting unknown
// fields and oversized bodies (1 MiB cap, request bodies here are small
// control payloads, never data).
func decodeJSONBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	// A second document in the body means the client is confused.
	if dec.More() {
		return errors.New("invalid JSON body: unexpected trailing data")
	}
	return nil
}

// RespondError sends a structured error response to the client via writeProblem.
// It automatically extracts the request ID from the context.
func RespondError(w http.ResponseWriter, r *http.Request, statusCode int, apiErr *APIError, details ...any) {
	var d any
	if len(details) > 0 {
		d = details[0]
	}

	// Map APIError to RFC 7807 problem details
	//   - title: Human-readable short label (APIError.Message)
	//   - code: Stable machine-readable short code (APIError.Code)
	//   - type: Prefixed code for URI reference
	problemType := "error/" + strings.ToLower(apiErr.Code)

	extra := make(map[string]any)
	if d != nil {
		extra["details"] = d
	}

	writeProblem(w, r, statusCode, problemType, apiErr.Message, apiErr.Code, "", extra)
}

// writeProblem writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: Canonical machine identifier (e.g. "error/dataset_not_found").
//   - title: Human-readable short label (e.g. "Dataset not found").
//   - code: Stable machine-readable short code (e.g. "DATASET_NOT_FOUND").
//   - detail: Human-readable explanation of the specific error.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	if r == nil {
		// Invariant: all handlers must pass the request to the error writer.
		// If this happens in production, it's a developer error.
		log.Base().Error().Str("type", problemType).Int("status", status).Msg("writeProblem called with nil request")
	}

	instance := ""
	if r != nil {
		instance = r.URL.EscapedPath()
	}

	// Request ID from context or response header (the middleware sets both).
	reqID := ""
	if r != nil {
		reqID = log.RequestIDFromContext(r.Context())
	}
	if reqID == "" {
		reqID = w.Header().Get(middleware.HeaderRequestID)
	}
	if reqID == "" {
		// Every error response must carry a request id. Reaching this
		// sentinel means the middleware or context propagation failed.
		reqID = "MISSING-REQUEST-ID"
	}

	res := map[string]any{
		"type":           problemType,
		"title":          title,
		"status":         status,
		"code":           code,
		JSONKeyRequestID: reqID,
	}

	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}

	// Add extensions at top level, protecting reserved keys.
	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", JSONKeyRequestID:
			log.Base().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	w.Header().Set(middleware.HeaderRequestID, reqID)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Base().Error().
			Err(err).
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}
