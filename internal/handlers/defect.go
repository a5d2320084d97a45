package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/equiptrack/defect-registry/internal/models"
)

// DefectStore is the record-store surface the defect handlers need.
// Satisfied by services.DefectStore; stubbed in tests.
type DefectStore interface {
	Insert(ctx context.Context, report *models.DefectReport) error
	List(ctx context.Context) ([]models.DefectReport, error)
}

// DefectHandler implements defect reporting and listing. Both routes sit
// behind the session guard; the handler itself does no auth.
type DefectHandler struct {
	defects DefectStore
}

// NewDefectHandler constructs a DefectHandler.
func NewDefectHandler(defects DefectStore) *DefectHandler {
	return &DefectHandler{defects: defects}
}

// Report handles POST /report-defect. The body is persisted as-is; no field
// is required or validated beyond JSON type coercion.
func (h *DefectHandler) Report(w http.ResponseWriter, r *http.Request) {
	var report models.DefectReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	if err := h.defects.Insert(r.Context(), &report); err != nil {
		log.Printf("❌ Error saving defect: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}

	log.Printf("🔧 Defect Reported: %s - %s", report.TankName, report.Description)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Defect reported successfully!"})
}

// List handles GET /get-defects: the whole collection, no pagination.
func (h *DefectHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.defects.List(r.Context())
	if err != nil {
		log.Printf("❌ Error fetching defects: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, reports)
}
