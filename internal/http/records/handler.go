package records

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dcoutinho/notacheck/internal/export"
	"github.com/dcoutinho/notacheck/internal/verification"
)

type Handler struct {
	svc      *verification.Service
	exporter *export.Service
}

func NewHandler(svc *verification.Service, exporter *export.Service) *Handler {
	return &Handler{svc: svc, exporter: exporter}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/export", h.export)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := verification.Filter{}

	if s := r.URL.Query().Get("region"); s != "" {
		region := strings.ToUpper(s)
		filter.Region = &region
	}

	if s := r.URL.Query().Get("valid"); s != "" {
		if valid, err := strconv.ParseBool(s); err == nil {
			filter.Valid = &valid
		}
	}

	if s := r.URL.Query().Get("decision"); s != "" {
		decision := verification.Outcome(s)
		filter.Decision = &decision
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err := strconv.Atoi(s); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	recs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(recs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(rec)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateRequest struct {
	ReceivedDate *string `json:"received_date,omitempty"`
	Valid        *bool   `json:"valid,omitempty"`
	PlannedDate  *string `json:"planned_date,omitempty"`
	Decision     *string `json:"decision,omitempty"`
	Message      *string `json:"message,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := verification.UpdateParams{
		Valid:       req.Valid,
		PlannedDate: req.PlannedDate,
		Message:     req.Message,
	}

	if req.ReceivedDate != nil {
		t, err := time.Parse(time.DateOnly, *req.ReceivedDate)
		if err != nil {
			http.Error(w, "received_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		params.ReceivedDate = &t
	}

	if req.Decision != nil {
		decision := verification.Outcome(*req.Decision)
		params.Decision = &decision
	}

	rec, err := h.svc.Update(r.Context(), id, params)
	if err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(rec)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	deleted, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !deleted {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="registros.xlsx"`)

	if err := h.exporter.Export(r.Context(), verification.Filter{}, w); err != nil {
		slog.Error("export failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
	}
}
