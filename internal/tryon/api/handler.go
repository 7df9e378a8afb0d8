package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ms-tryon/internal/analytics"
	"ms-tryon/internal/auth"
	"ms-tryon/internal/logger"
	"ms-tryon/internal/models"
	"ms-tryon/internal/sse"
	"ms-tryon/internal/tryon"
	"ms-tryon/internal/tryon/qr"
	"ms-tryon/internal/utils"
)

type Handler struct {
	Store     *tryon.Store
	Codes     *qr.Generator
	Broker    *sse.Broker
	Analytics *analytics.Service
	Verifier  auth.Verifier
	AdminRole string
	Logger    *logger.Logger
}

// RegisterRoutes mounts the public, customer and admin routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Use(RequestLogger(h.Logger))
	r.Get("/healthz", h.Health)

	r.Route("/api/tryon", func(r chi.Router) {
		r.Get("/festivals", h.ListFestivals)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.Verifier, h.Logger))

			r.Route("/reservations", func(r chi.Router) {
				r.Post("/", h.CreateReservation)
				r.Get("/mine", h.ListMyReservations)
				r.Get("/mine/stream", h.StreamMine)
				r.Get("/{id}", h.GetReservation)
				r.Get("/{id}/qr.png", h.GetQRCode)
				r.Post("/{id}/cancel", h.CancelReservation)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRole(h.Logger, h.AdminRole))
				r.Get("/lookup", h.Lookup)
				r.Get("/reservations", h.ListReservations)
				r.Patch("/reservations/{id}", h.UpdateReservation)
				r.Post("/reservations/{id}/confirm", h.Confirm)
				r.Post("/reservations/{id}/check-in", h.CheckIn)
				r.Post("/reservations/{id}/payment", h.ProcessPayment)
				r.Post("/reservations/{id}/pickup", h.MarkPickedUp)
				r.Post("/reservations/{id}/notes", h.AddNote)
				r.Get("/analytics", h.GetAnalytics)
				r.Get("/stream", h.StreamAll)
			})
		})
	})
}

// RequestLogger records method, path, status and latency of every request.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(ww.Status()), time.Since(start).String())
		})
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", nil))
}

func (h *Handler) ListFestivals(w http.ResponseWriter, r *http.Request) {
	festivals := h.Store.Festivals()
	if r.URL.Query().Get("available") == "true" {
		festivals = h.Store.GetAvailableFestivals()
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Festivals retrieved", festivals))
}

type createReservationRequest struct {
	UserName          string   `json:"user_name"`
	UserEmail         string   `json:"user_email"`
	Pieces            []string `json:"pieces"`
	PrimaryFestival   string   `json:"primary_festival"`
	AlternateFestival string   `json:"alternate_festival,omitempty"`
}

// reservationView adds the pickup URL the customer's QR code encodes.
type reservationView struct {
	models.Reservation
	PickupURL string `json:"pickup_url"`
}

func (h *Handler) view(r models.Reservation) reservationView {
	return reservationView{Reservation: r, PickupURL: h.Codes.PickupURL(r.QRCode)}
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	in := tryon.NewReservation{
		UserID:            id.UserID,
		UserEmail:         firstNonEmpty(req.UserEmail, id.Email),
		UserName:          firstNonEmpty(req.UserName, id.Name),
		Pieces:            req.Pieces,
		PrimaryFestival:   req.PrimaryFestival,
		AlternateFestival: req.AlternateFestival,
	}
	res, err := h.Store.CreateReservation(r.Context(), in)
	h.respond(w, r, http.StatusCreated, "Reservation created", res, err)
}

func (h *Handler) ListMyReservations(w http.ResponseWriter, r *http.Request) {
	rs := h.Store.GetUserReservations(auth.UserID(r.Context()))
	views := make([]reservationView, 0, len(rs))
	for _, res := range rs {
		views = append(views, h.view(res))
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Reservations retrieved", views))
}

// ownedReservation loads {id} and writes 404 unless the caller owns it or
// is an admin. Foreign reservations are reported as missing.
func (h *Handler) ownedReservation(w http.ResponseWriter, r *http.Request) (models.Reservation, bool) {
	id := auth.FromContext(r.Context())
	res, ok := h.Store.GetReservation(chi.URLParam(r, "id"))
	if !ok || (res.UserID != id.UserID && id.Role != h.AdminRole) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Reservation not found", tryon.ErrNotFound.Error()))
		return models.Reservation{}, false
	}
	return res, true
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, ok := h.ownedReservation(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Reservation retrieved", h.view(res)))
}

func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	res, ok := h.ownedReservation(w, r)
	if !ok {
		return
	}
	png, err := h.Codes.PNG(res.QRCode)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("QR render failed for %s: %v", res.ID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not render QR code", err.Error()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	res, ok := h.ownedReservation(w, r)
	if !ok {
		return
	}
	updated, err := h.Store.CancelReservation(r.Context(), res.ID)
	h.respond(w, r, http.StatusOK, "Reservation cancelled", updated, err)
}

// respond maps store errors onto HTTP statuses. A change that was applied
// but not persisted is still a success, reported with a warning.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, message string, res models.Reservation, err error) {
	switch {
	case err == nil:
		utils.WriteJSON(w, status, utils.SuccessResponse(message, h.view(res)))
	case errors.Is(err, tryon.ErrNotPersisted):
		h.Logger.Warn("API", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		resp := utils.SuccessResponse(message, h.view(res))
		resp.Warning = err.Error()
		utils.WriteJSON(w, status, resp)
	default:
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			h.Logger.Error("API", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		}
		utils.WriteJSON(w, code, utils.ErrorResponse(message+" failed", err.Error()))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tryon.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tryon.ErrInvalidTransition), errors.Is(err, tryon.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, tryon.ErrInvalidAmount),
		errors.Is(err, tryon.ErrInvalidSelection),
		errors.Is(err, tryon.ErrInvalidReservation),
		errors.Is(err, tryon.ErrUnknownFestival),
		errors.Is(err, tryon.ErrFestivalClosed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
