package control

import (
	"encoding/json"
	"net/http"

	"github.com/awim-deck/awimd/pkg/bridge"
	"github.com/awim-deck/awimd/pkg/errors"
	"github.com/awim-deck/awimd/pkg/logging"
	"github.com/awim-deck/awimd/pkg/supervisor"
)

// Handler serves the remote command surface polled by the overlay UI.
// Every mutating call returns the resulting snapshot so the caller never
// needs a separate read-after-write.
type Handler struct {
	supervisor *supervisor.Supervisor
	logger     logging.Logger
}

func NewHandler(sup *supervisor.Supervisor, logger logging.Logger) *Handler {
	return &Handler{
		supervisor: sup,
		logger:     logger,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warnf("Failed to encode JSON response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.NewValidationError("invalid JSON body", err))
		return false
	}
	return true
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, FromSnapshot(h.supervisor.Snapshot()))
}

func (h *Handler) ValidateAddress(w http.ResponseWriter, r *http.Request) {
	var req ValidateAddressRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusOK, ValidateResponse{Valid: bridge.ValidAddress(req.Address)})
}

func (h *Handler) ValidatePort(w http.ResponseWriter, r *http.Request) {
	var req ValidatePortRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusOK, ValidateResponse{Valid: bridge.ValidPort(req.Port)})
}

func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if !h.decode(w, r, &req) {
		return
	}

	snapshot, err := h.supervisor.UpdateConfig(req.Address, req.Port)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusOK, FromSnapshot(snapshot))
}

func (h *Handler) SetTCPMode(w http.ResponseWriter, r *http.Request) {
	var req SetFlagRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusOK, FromSnapshot(h.supervisor.SetTransportMode(req.Enabled)))
}

func (h *Handler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	var req SetFlagRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusOK, FromSnapshot(h.supervisor.SetEnabled(r.Context(), req.Enabled)))
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
