package http

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var statusByCode = map[string]int{
	domain.ErrCodeInvalidRange:           http.StatusBadRequest,
	domain.ErrCodeInvalidItems:           http.StatusBadRequest,
	domain.ErrCodeInvalidArgument:        http.StatusBadRequest,
	domain.ErrCodeMissingFeeDescription:  http.StatusBadRequest,
	domain.ErrCodeMissingInspectionNotes: http.StatusBadRequest,
	domain.ErrCodeOrderNotFound:          http.StatusNotFound,
	domain.ErrCodeRequestNotFound:        http.StatusNotFound,
	domain.ErrCodeDuplicateOpenRequest:   http.StatusConflict,
	domain.ErrCodeNotEligible:            http.StatusUnprocessableEntity,
	domain.ErrCodeInvalidTransition:      http.StatusUnprocessableEntity,
	domain.ErrCodeConflictRetry:          http.StatusServiceUnavailable,
	domain.ErrCodeUpstreamTimeout:        http.StatusGatewayTimeout,
	domain.ErrCodeForbidden:              http.StatusForbidden,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps a service error onto an HTTP status and error body.
func writeError(w http.ResponseWriter, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		if status, ok := statusByCode[de.Code]; ok {
			if status == http.StatusServiceUnavailable {
				w.Header().Set("Retry-After", "1")
			}
			writeErrorCode(w, status, de.Code, de.Message)
			return
		}
	}
	logger.Error("Unhandled error in HTTP handler", "error", err)
	writeErrorCode(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewInvalidArgumentError("malformed request body: " + err.Error())
	}
	return nil
}
