package handlers

import (
	"encoding/json"
	"net/http"

	"camioBack/internal/services"
)

type AssignmentHandler struct {
	Service *services.AssignmentService
}

func (h *AssignmentHandler) ChooseTransporter(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var input struct {
		TransporterID int `json:"transporter_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	req, err := h.Service.ChooseTransporter(r.Context(), id, input.TransporterID, contextUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *AssignmentHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	req, err := h.Service.AcceptOffer(r.Context(), offerID, contextUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *AssignmentHandler) AssignTransporterManually(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var input struct {
		TransporterID     int     `json:"transporter_id"`
		TransporterAmount float64 `json:"transporter_amount"`
		PlatformFee       float64 `json:"platform_fee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	req, err := h.Service.AssignTransporterManually(r.Context(), id, input.TransporterID, input.TransporterAmount, input.PlatformFee)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
