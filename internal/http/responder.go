package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-booking/internal/application"
)

// Error codes carried in the response envelope.
const (
	codeInvalid      = "INVALID"
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeNotFound     = "NOT_FOUND"
	codeRateLimited  = "RATE_LIMITED"
	codeInternal     = "INTERNAL"

	// codeConflict is reserved for booking overlaps that carry alternatives.
	codeConflict      = "CONFLICT"
	codeAlreadyExists = "ALREADY_EXISTS"
	codeStateConflict = "STATE_CONFLICT"
)

const (
	msgMissingFields       = "필수 항목이 누락되었습니다."
	msgBadRequest          = "잘못된 요청입니다."
	msgInvalidInput        = "입력 내용을 확인해주세요."
	msgReservationConflict = "해당 시간에 이미 예약이 있습니다."
	msgReservationNotFound = "예약을 찾을 수 없습니다."
	msgRoomNotFound        = "회의실을 찾을 수 없습니다."
	msgResourceNotFound    = "요청한 리소스를 찾을 수 없습니다."
	msgForbidden           = "이 작업을 수행할 권한이 없습니다."
	msgUnauthorized        = "로그인이 필요합니다."
	msgSessionInvalid      = "세션이 만료되었습니다. 다시 로그인해주세요."
	msgInvalidCredentials  = "이메일 또는 비밀번호가 올바르지 않습니다."
	msgAccountDisabled     = "비활성화된 계정입니다."
	msgAlreadyExists       = "이미 존재하는 항목입니다."
	msgStateConflict       = "요청이 현재 상태와 충돌합니다."
	msgRateLimited         = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."
	msgInternal            = "서버 내부 오류가 발생했습니다."
)

var (
	errBadRequestBody      = errors.New(msgBadRequest)
	errMissingFields       = errors.New(msgMissingFields)
	errMissingSessionToken = errors.New(msgUnauthorized)
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeOK(ctx context.Context, w http.ResponseWriter) {
	r.writeJSON(ctx, w, http.StatusOK, okResponse{OK: true})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
	}
	r.writeJSON(ctx, w, status, errorResponse{Code: statusCode(status), Message: message})
}

// handleServiceError maps application errors onto the response envelope.
// notFound overrides the generic not-found message when non-empty.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error, notFound string) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New(msgInternal))
		return
	}

	var (
		cErr *application.ConflictError
		vErr *application.ValidationError
	)
	switch {
	case errors.As(err, &cErr):
		r.writeJSON(ctx, w, http.StatusConflict, conflictResponse{
			errorResponse: errorResponse{Code: codeConflict, Message: msgReservationConflict},
			Conflicts:     toReservationDTOs(cErr.Conflicts),
			Alternatives:  toAlternativesDTO(application.Alternatives{Slots: cErr.AlternativeSlots, Rooms: cErr.AlternativeRooms}),
		})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Code:    codeInvalid,
			Message: msgInvalidInput,
			Errors:  vErr.FieldErrors,
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Code: codeUnauthorized, Message: msgInvalidCredentials})
	case errors.Is(err, application.ErrAccountDisabled):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Code: codeUnauthorized, Message: msgAccountDisabled})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Code: codeUnauthorized, Message: msgSessionInvalid})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Code: codeUnauthorized, Message: msgUnauthorized})
	case errors.Is(err, application.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{Code: codeForbidden, Message: msgForbidden})
	case errors.Is(err, application.ErrNotFound):
		if notFound == "" {
			notFound = msgResourceNotFound
		}
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Code: codeNotFound, Message: notFound})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Code: codeAlreadyExists, Message: msgAlreadyExists})
	case errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Code: codeStateConflict, Message: msgStateConflict})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Code: codeInternal, Message: msgInternal})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return codeInvalid
	case http.StatusUnauthorized:
		return codeUnauthorized
	case http.StatusForbidden:
		return codeForbidden
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusConflict:
		return codeStateConflict
	case http.StatusTooManyRequests:
		return codeRateLimited
	default:
		return codeInternal
	}
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return msgBadRequest
	case http.StatusUnauthorized:
		return msgUnauthorized
	case http.StatusForbidden:
		return msgForbidden
	case http.StatusNotFound:
		return msgResourceNotFound
	case http.StatusConflict:
		return msgStateConflict
	case http.StatusTooManyRequests:
		return msgRateLimited
	default:
		return msgInternal
	}
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	OK      bool              `json:"ok"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type conflictResponse struct {
	errorResponse
	Conflicts    []reservationDTO `json:"conflicts"`
	Alternatives alternativesDTO  `json:"alternatives"`
}
