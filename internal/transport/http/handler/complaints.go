package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/civic-relay/internal/application/complaint"
	"github.com/civic-relay/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ComplaintEnvelope wraps complaint submission responses.
type ComplaintEnvelope struct {
	Success     bool              `json:"success,omitempty"`
	Message     string            `json:"message,omitempty"`
	TrackingID  string            `json:"trackingId,omitempty"`
	ReferenceID string            `json:"reference_id,omitempty"`
	Complaint   *domain.Complaint `json:"complaint,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// ComplaintHandler handles complaint relay and lookup endpoints.
type ComplaintHandler struct {
	svc complaint.Service
}

func NewComplaintHandler(svc complaint.Service) *ComplaintHandler {
	return &ComplaintHandler{svc: svc}
}

func (h *ComplaintHandler) Relay(w http.ResponseWriter, r *http.Request) {
	var req complaint.RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trackingID, err := h.svc.Relay(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ComplaintEnvelope{
		Success:    true,
		Message:    "Complaint submitted & emails sent!",
		TrackingID: trackingID,
	})
}

func (h *ComplaintHandler) RelayAnonymous(w http.ResponseWriter, r *http.Request) {
	var req complaint.AnonymousRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.RelayAnonymous(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ComplaintEnvelope{
		Success:     true,
		Message:     "Complaint received",
		ReferenceID: res.ReferenceID,
		Complaint:   res.Inserted,
	})
}

func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	referenceID := chi.URLParam(r, "referenceID")
	c, err := h.svc.Get(r.Context(), referenceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "complaint not found")
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ComplaintEnvelope{Success: true, Complaint: c})
}
