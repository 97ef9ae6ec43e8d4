package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/logging"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	CancelReservation(ctx context.Context, principal application.Principal, reservationID string) error
	ListReservations(ctx context.Context, date string) ([]application.Reservation, error)
	ListMyReservations(ctx context.Context, principal application.Principal) ([]application.Reservation, error)
	FindAlternatives(ctx context.Context, roomID string, params application.SearchParams) (application.Alternatives, error)
}

// ReservationHandler serves booking, cancellation, and the recovery menu.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

// NewReservationHandler builds a ReservationHandler.
func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := logging.OrDefault(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return logging.Scoped(ctx, h.logger, "handler", "ReservationHandler", operation, attrs...)
}

// List returns the reservations for the date query parameter.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingFields)
		return
	}

	logger := h.log(r.Context(), "List", "date", date)
	reservations, err := h.service.ListReservations(r.Context(), date)
	if err != nil {
		logger.WarnContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err, "")
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTOs(reservations))
}

// Create books a room for the authenticated principal.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if !req.complete() {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingFields)
		return
	}

	logger := h.log(r.Context(), "Create", "room_id", req.RoomID, "date", req.Date)

	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.InfoContext(r.Context(), "reservation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err, "")
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{OK: true, Reservation: toReservationDTO(reservation)})
}

// Delete cancels a reservation owned by the principal.
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, _ := ResourceIDFromContext(r.Context())
	if strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "reservation_id", id)
	if err := h.service.CancelReservation(r.Context(), principal, id); err != nil {
		logger.WarnContext(r.Context(), "reservation cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err, msgReservationNotFound)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled")
	h.responder.writeOK(r.Context(), w)
}

// Mine returns the principal's reservations.
func (h *ReservationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.ListMyReservations(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Mine").WarnContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err, "")
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTOs(reservations))
}

// Alternatives returns other free windows in the room and other free rooms for the window.
func (h *ReservationHandler) Alternatives(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	roomID := strings.TrimSpace(query.Get("roomId"))
	params, err := searchParamsFromQuery(query)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err, "")
		return
	}

	alternatives, err := h.service.FindAlternatives(r.Context(), roomID, params)
	if err != nil {
		h.log(r.Context(), "Alternatives", "room_id", roomID).WarnContext(r.Context(), "alternatives lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err, "")
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, alternativesResponse{OK: true, Alternatives: toAlternativesDTO(alternatives)})
}

type reservationRequest struct {
	RoomID    string   `json:"roomId"`
	Date      string   `json:"date"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Attendees int      `json:"attendees"`
	Equipment []string `json:"equipment"`
}

// complete reports whether every required field is present.
func (r reservationRequest) complete() bool {
	return strings.TrimSpace(r.RoomID) != "" &&
		strings.TrimSpace(r.Date) != "" &&
		strings.TrimSpace(r.Start) != "" &&
		strings.TrimSpace(r.End) != "" &&
		r.Attendees != 0
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		RoomID:    strings.TrimSpace(r.RoomID),
		Date:      strings.TrimSpace(r.Date),
		Start:     strings.TrimSpace(r.Start),
		End:       strings.TrimSpace(r.End),
		Attendees: r.Attendees,
		Equipment: r.Equipment,
	}
}

type reservationResponse struct {
	OK          bool           `json:"ok"`
	Reservation reservationDTO `json:"reservation"`
}

type alternativesResponse struct {
	OK           bool            `json:"ok"`
	Alternatives alternativesDTO `json:"alternatives"`
}
