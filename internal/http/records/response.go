package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/dcoutinho/notacheck/internal/verification"
)

type recordResponse struct {
	ID           uuid.UUID `json:"id"`
	Region       string    `json:"region"`
	Invoice      int64     `json:"invoice"`
	Order        int64     `json:"order"`
	ReceivedDate string    `json:"received_date"`
	Valid        bool      `json:"valid"`
	PlannedDate  string    `json:"planned_date"`
	Decision     string    `json:"decision"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toResponse(rec *verification.Record) recordResponse {
	received := ""
	if !rec.ReceivedDate.IsZero() {
		received = rec.ReceivedDate.Format(time.DateOnly)
	}

	return recordResponse{
		ID:           rec.ID,
		Region:       rec.Region,
		Invoice:      rec.Invoice,
		Order:        rec.Order,
		ReceivedDate: received,
		Valid:        rec.Valid,
		PlannedDate:  rec.PlannedDate,
		Decision:     string(rec.Decision),
		Message:      rec.Message,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

func toResponseList(recs []*verification.Record) []recordResponse {
	resp := make([]recordResponse, len(recs))
	for i, rec := range recs {
		resp[i] = toResponse(rec)
	}

	return resp
}
