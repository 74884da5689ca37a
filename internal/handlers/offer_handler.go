package handlers

import (
	"encoding/json"
	"net/http"

	"camioBack/internal/models"
	"camioBack/internal/services"
)

type OfferHandler struct {
	Service *services.OfferService
}

func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var input models.CreateOfferInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	input.TransporterID = contextUserID(r)

	offer, err := h.Service.CreateOffer(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

func (h *OfferHandler) ListByRequest(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	out, err := h.Service.GetOffersByRequest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OfferHandler) RejectOffer(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := h.Service.RejectOffer(r.Context(), id, contextUserID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
