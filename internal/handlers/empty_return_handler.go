package handlers

import (
	"encoding/json"
	"net/http"

	"camioBack/internal/models"
	"camioBack/internal/services"
)

type EmptyReturnHandler struct {
	Service *services.EmptyReturnService
}

func (h *EmptyReturnHandler) CreateEmptyReturn(w http.ResponseWriter, r *http.Request) {
	var input models.CreateEmptyReturnInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	input.TransporterID = contextUserID(r)

	er, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, er)
}

func (h *EmptyReturnHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.ListByTransporter(r.Context(), contextUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EmptyReturnHandler) ListByRoute(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from_city")
	to := r.URL.Query().Get("to_city")
	if from == "" || to == "" {
		http.Error(w, "from_city and to_city required", http.StatusBadRequest)
		return
	}
	out, err := h.Service.ListOpenByRoute(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EmptyReturnHandler) DeleteEmptyReturn(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := h.Service.Delete(r.Context(), id, contextUserID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConsumeEmptyReturn binds the return to a request and pre-assigns its
// transporter. Admin only.
func (h *EmptyReturnHandler) ConsumeEmptyReturn(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var input struct {
		RequestID int `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	req, err := h.Service.Consume(r.Context(), id, input.RequestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
