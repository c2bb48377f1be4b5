// Package catalogadmin exposes the "update base" operation: upload a new
// planning catalog file and drop the cached table.
package catalogadmin

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Invalidator is the cache hook the upload triggers.
type Invalidator interface {
	Invalidate()
}

type Handler struct {
	path    string
	catalog Invalidator
}

// NewHandler serves catalog uploads, writing them to path (the location the
// catalog loader reads from).
func NewHandler(path string, catalog Invalidator) *Handler {
	return &Handler{path: path, catalog: catalog}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.upload)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
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

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".xls" && ext != ".csv" {
		http.Error(w, "unsupported file type (use .xlsx, .xls or .csv)", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		http.Error(w, "failed to store catalog", http.StatusInternalServerError)
		return
	}

	dst, err := os.Create(h.path)
	if err != nil {
		http.Error(w, "failed to store catalog", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		http.Error(w, "failed to store catalog", http.StatusInternalServerError)
		return
	}

	// The next lookup reloads from the new file.
	h.catalog.Invalidate()

	slog.Info("catalog updated", "file", header.Filename)

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(map[string]bool{"success": true}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
