package verifications

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dcoutinho/notacheck/internal/verification"
)

type Handler struct {
	svc *verification.Service
}

func NewHandler(svc *verification.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.verify)
}

// All fields are strings on the wire except valid.
type verifyRequest struct {
	Region       string `json:"region"`
	Invoice      string `json:"invoice"`
	Order        string `json:"order"`
	ReceivedDate string `json:"received_date"`
}

type verifyResponse struct {
	Region       string `json:"region"`
	Invoice      string `json:"invoice"`
	Order        string `json:"order"`
	ReceivedDate string `json:"received_date"`
	Valid        bool   `json:"valid"`
	PlannedDate  string `json:"planned_date"`
	Decision     string `json:"decision"`
	Message      string `json:"message"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.Validate(r.Context(), verification.Input{
		Region:       req.Region,
		Invoice:      req.Invoice,
		Order:        req.Order,
		ReceivedDate: req.ReceivedDate,
	})
	if err != nil {
		var inputErr *verification.InputError
		if errors.As(err, &inputErr) {
			http.Error(w, inputErr.Error(), http.StatusBadRequest)
			return
		}

		slog.Error("validation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	resp := verifyResponse{
		Region:       result.Region,
		Invoice:      result.Invoice,
		Order:        result.Order,
		ReceivedDate: result.ReceivedDate,
		Valid:        result.Valid,
		PlannedDate:  result.PlannedDate,
		Decision:     string(result.Decision),
		Message:      result.Message,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
