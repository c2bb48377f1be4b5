package verification

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal decision tag attached to a verification.
type Outcome string

const (
	// OutcomeOpenNow means the downstream ticket may be opened immediately.
	OutcomeOpenNow Outcome = "open_now"
	// OutcomeWaitMonthClose means the planned month is still in the future
	// and the ticket must wait for month-close.
	OutcomeWaitMonthClose Outcome = "wait_month_close"
	// OutcomeManualReview is forced by the catalog category, regardless of dates.
	OutcomeManualReview Outcome = "manual_review"
	// OutcomeInvalidDate means one of the two dates matched no known format.
	OutcomeInvalidDate Outcome = "invalid_date"
)

// CategoryNetworkEngineering is the default catalog category that forces
// manual review of a shipment.
const CategoryNetworkEngineering = "engenharia de redes"

// Record is a persisted verification result.
type Record struct {
	ID           uuid.UUID
	Region       string
	Invoice      int64
	Order        int64
	ReceivedDate time.Time
	Valid        bool
	// PlannedDate keeps the planning token as matched in the catalog,
	// e.g. "2025/maio". Empty when there was no catalog match.
	PlannedDate string
	Decision    Outcome
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key identifies a record for uniqueness purposes. The order number is
// descriptive and deliberately not part of the identity.
type Key struct {
	Region  string
	Invoice int64
}

// Key returns the record's uniqueness key.
func (r *Record) Key() Key {
	return Key{Region: r.Region, Invoice: r.Invoice}
}

var (
	// ErrNotFound is returned when no record matches the id or key.
	ErrNotFound = errors.New("verification record not found")
	// ErrDuplicate is returned by Create when a record with the same
	// (region, invoice) key already exists.
	ErrDuplicate = errors.New("verification record already exists")
)

// InputError reports a caller-supplied field that failed basic validation.
// It is the caller's fault and never retried.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// Filter selects records by exact match on the set fields. Limit 0 means no limit.
type Filter struct {
	Region   *string
	Valid    *bool
	Decision *Outcome
	Limit    int
}

// UpdateParams carries a partial update. Nil fields keep their prior value;
// UpdatedAt always refreshes.
type UpdateParams struct {
	ReceivedDate *time.Time
	Valid        *bool
	PlannedDate  *string
	Decision     *Outcome
	Message      *string
}
