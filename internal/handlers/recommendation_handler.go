package handlers

import (
	"net/http"

	"camioBack/internal/services"
)

type RecommendationHandler struct {
	Service *services.RecommendationService
}

func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	out, err := h.Service.GetRecommendations(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
