package imports

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dcoutinho/notacheck/internal/importer"
)

type Handler struct {
	importer *importer.Importer
}

func NewHandler(imp *importer.Importer) *Handler {
	return &Handler{importer: imp}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importFile)
}

type importResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var src importer.Source

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv", ".txt":
		src = importer.NewCSVSource(file)
	case ".xlsx", ".xls":
		src = importer.NewXLSXSource(file)
	default:
		http.Error(w, "unsupported file type (use .csv or .xlsx)", http.StatusBadRequest)
		return
	}

	result, err := h.importer.ImportSource(r.Context(), src)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Info("bulk import finished",
		"file", header.Filename,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(importResponse{
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Failed:   result.Failed,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
