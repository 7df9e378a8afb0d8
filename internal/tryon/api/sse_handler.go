package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-tryon/internal/auth"
	"ms-tryon/internal/models"
	"ms-tryon/internal/utils"
)

// StreamMine pushes status changes of the caller's reservations.
func (h *Handler) StreamMine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.stream(w, r, "user "+userID, h.Broker.Subscribe(r.Context(), userID))
}

// StreamAll feeds the admin dashboard with every reservation change.
func (h *Handler) StreamAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "admin "+auth.UserID(r.Context()), h.Broker.SubscribeAll(r.Context()))
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, who string, events <-chan models.ReservationEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Streaming unsupported", "response writer cannot flush"))
		return
	}

	setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()
	h.Logger.Info("SSE", "Client connected: "+who)

	ctx := r.Context()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize reservation event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected: "+who)
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
