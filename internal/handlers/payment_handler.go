package handlers

import (
	"io"
	"net/http"
	"strings"

	"camioBack/internal/services"
)

const maxReceiptSize = 10 << 20

type PaymentHandler struct {
	Service *services.PaymentService
}

// MarkAsPaid accepts the receipt either as a multipart file upload or as a
// JSON body carrying an already-hosted reference.
func (h *PaymentHandler) MarkAsPaid(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	var file []byte
	var filename, receiptRef string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		f, header, err := r.FormFile("receipt")
		if err != nil {
			http.Error(w, "Receipt file missing", http.StatusBadRequest)
			return
		}
		defer f.Close()
		file, err = io.ReadAll(io.LimitReader(f, maxReceiptSize))
		if err != nil {
			http.Error(w, "Could not read receipt", http.StatusBadRequest)
			return
		}
		filename = header.Filename
	} else {
		receiptRef = r.URL.Query().Get("receipt_url")
	}

	req, err := h.Service.MarkAsPaid(r.Context(), id, contextUserID(r), file, filename, receiptRef)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *PaymentHandler) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	req, err := h.Service.ValidatePayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *PaymentHandler) RejectReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	req, err := h.Service.RejectReceipt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
