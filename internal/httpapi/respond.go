package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/account"
	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/observability"
	"github.com/Spok95/school-portal/internal/records"
	"github.com/Spok95/school-portal/internal/store"
)

const maxBody = 1 << 20

var (
	errUnauthenticated = errors.New("sign in required")
	errForbidden       = errors.New("not allowed for this account")
	errBadRequest      = errors.New("malformed request body")
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(out); err != nil {
		return errBadRequest
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return errBadRequest
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

var accountStatus = map[account.Kind]int{
	account.MissingField:            http.StatusBadRequest,
	account.InvalidEmail:            http.StatusBadRequest,
	account.WeakPassword:            http.StatusBadRequest,
	account.PasswordMismatch:        http.StatusBadRequest,
	account.InvalidPhone:            http.StatusBadRequest,
	account.InvalidRole:             http.StatusBadRequest,
	account.InvalidSchoolName:       http.StatusBadRequest,
	account.InvalidNationalID:       http.StatusBadRequest,
	account.SchoolNameTaken:         http.StatusConflict,
	account.EmailInUse:              http.StatusConflict,
	account.RegistrationDisabled:    http.StatusForbidden,
	account.InvalidCredentials:      http.StatusUnauthorized,
	account.AccountDisabled:         http.StatusForbidden,
	account.TooManyAttempts:         http.StatusTooManyRequests,
	account.UserRecordWriteFailed:   http.StatusBadGateway,
	account.SchoolRecordWriteFailed: http.StatusBadGateway,
}

// writeErr maps err to a status and a stable error code. Server side failures
// are logged and sent to Sentry.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := http.StatusInternalServerError, "server_error", ""
	var ae *account.Error
	switch {
	case errors.As(err, &ae):
		status, code, msg = http.StatusInternalServerError, ae.Kind.String(), ae.Message()
		if st, ok := accountStatus[ae.Kind]; ok {
			status = st
		}
	case errors.Is(err, errBadRequest):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, errUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, errForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, records.ErrSchoolNotFound):
		status, code = http.StatusNotFound, "school_not_found"
	case errors.Is(err, records.ErrUserNotFound):
		status, code = http.StatusNotFound, "user_not_found"
	case errors.Is(err, records.ErrImmutableField),
		errors.Is(err, records.ErrMissingStaffID),
		errors.Is(err, records.ErrInvalidRole),
		errors.Is(err, store.ErrInvalidPath):
		status, code, msg = http.StatusBadRequest, "invalid_request", err.Error()
	case identity.KindOf(err) == identity.InvalidToken:
		status, code = http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, store.ErrStore):
		status, code = http.StatusServiceUnavailable, "store_unavailable"
	}

	if status >= 500 {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
		observability.CaptureErr(err)
	}
	writeError(w, status, code, msg)
}
