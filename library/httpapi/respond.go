package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
)

const (
	logMsgRequestFailed = "http request failed"
	logAttrStatus       = "status"
	logAttrError        = "error"

	internalErrorMessage = "internal error"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

type errorResponse struct {
	Error string `json:"error"`
}

func decodeJSON(r *http.Request, v any) error {
	if err := codec.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json body", core.ErrValidation)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = codec.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicate), errors.Is(err, core.ErrInsufficientCopies):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status. Internal failures are logged and not shown to the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)

	if status == http.StatusInternalServerError {
		if s.logger != nil {
			s.logger.Error(logMsgRequestFailed, logAttrStatus, status, logAttrError, err.Error())
		}

		writeErrorMessage(w, status, internalErrorMessage)

		return
	}

	writeErrorMessage(w, status, err.Error())
}
