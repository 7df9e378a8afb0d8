package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-tryon/internal/models"
	"ms-tryon/internal/tryon"
	"ms-tryon/internal/utils"
)

// Lookup resolves a scanned QR payload, either a bare code or a pickup URL.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Lookup failed", "code is required"))
		return
	}
	res, ok := h.Store.LookupScanned(code)
	if !ok {
		h.Logger.LogReservation("LOOKUP_MISS", "", "no reservation for scanned code "+code)
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Reservation not found", tryon.ErrNotFound.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Reservation found", h.view(res)))
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	filter := tryon.ReservationFilter{FestivalID: r.URL.Query().Get("festival")}
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := models.ParseStatus(s)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid status filter", err.Error()))
			return
		}
		filter.Status = st
	}
	rs := h.Store.ListReservations(filter)
	views := make([]reservationView, 0, len(rs))
	for _, res := range rs {
		views = append(views, h.view(res))
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Reservations retrieved", views))
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.Confirm(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, "Reservation confirmed", res, err)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.CheckIn(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, "Customer checked in", res, err)
}

type paymentRequest struct {
	Amount              float64  `json:"amount"`
	SelectedForPurchase []string `json:"selected_for_purchase"`
}

func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	res, err := h.Store.ProcessPayment(r.Context(), chi.URLParam(r, "id"), req.Amount, req.SelectedForPurchase)
	h.respond(w, r, http.StatusOK, "Payment recorded", res, err)
}

func (h *Handler) MarkPickedUp(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.MarkPickedUp(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, "Reservation picked up", res, err)
}

type noteRequest struct {
	Text string `json:"text"`
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	res, err := h.Store.AddNote(r.Context(), chi.URLParam(r, "id"), req.Text)
	h.respond(w, r, http.StatusOK, "Note added", res, err)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var upd tryon.ReservationUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&upd); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	res, err := h.Store.UpdateReservation(r.Context(), chi.URLParam(r, "id"), upd)
	h.respond(w, r, http.StatusOK, "Reservation updated", res, err)
}

func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	if festivalID := r.URL.Query().Get("festival"); festivalID != "" {
		fa, ok := h.Analytics.GetFestivalAnalytics(festivalID)
		if !ok {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Festival not found", tryon.ErrUnknownFestival.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Festival analytics retrieved", fa))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Analytics retrieved", h.Analytics.GetOverview()))
}
