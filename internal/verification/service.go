package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dcoutinho/notacheck/internal/catalog"
	"github.com/dcoutinho/notacheck/internal/dateparse"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=verification
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	FindByKey(ctx context.Context, region string, invoice int64) (*Record, error)
	List(ctx context.Context, filter Filter) ([]*Record, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// Keys returns the uniqueness keys of all stored records in one bulk
	// read. The batch importer uses it to avoid per-row lookups.
	Keys(ctx context.Context) (map[Key]struct{}, error)

	BeginImport(ctx context.Context) (ImportTx, error)
}

// ImportTx stages records for a single import batch. Create surfaces
// ErrDuplicate without invalidating the batch; Commit flushes once.
type ImportTx interface {
	Create(ctx context.Context, rec *Record) error
	Commit(ctx context.Context) error
	Rollback() error
}

// Catalog is the read-only planning lookup the service validates against.
type Catalog interface {
	Lookup(ctx context.Context, region string, invoice, order int64) (catalog.Entry, error)
}

// Service orchestrates catalog lookup, the decision rule and persistence.
type Service struct {
	catalog        Catalog
	store          Store
	manualCategory string
}

// Option configures a Service.
type Option func(*Service)

// WithManualReviewCategory overrides the catalog category that forces
// manual review. The default is CategoryNetworkEngineering.
func WithManualReviewCategory(category string) Option {
	return func(s *Service) {
		s.manualCategory = category
	}
}

func NewService(cat Catalog, store Store, opts ...Option) *Service {
	s := &Service{
		catalog:        cat,
		store:          store,
		manualCategory: CategoryNetworkEngineering,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Input is the raw validation request as received on the wire; all fields
// are strings.
type Input struct {
	Region       string
	Invoice      string
	Order        string
	ReceivedDate string
}

// Result is the externally visible validation outcome. Its shape is the
// same regardless of which branch produced it.
type Result struct {
	Region       string
	Invoice      string
	Order        string
	ReceivedDate string
	Valid        bool
	PlannedDate  string
	Decision     Outcome
	Message      string
}

const maxRegionLen = 6

// Validate runs the full pipeline: input normalization, catalog lookup,
// date parsing, decision, persistence. Persistence failures never change
// the decision; they are folded into the result message. Only an
// *InputError or a catalog load failure aborts the call itself.
func (s *Service) Validate(ctx context.Context, in Input) (*Result, error) {
	region := strings.ToUpper(strings.TrimSpace(in.Region))
	invoiceStr := strings.TrimSpace(in.Invoice)
	orderStr := strings.TrimSpace(in.Order)
	receivedStr := strings.TrimSpace(in.ReceivedDate)

	if err := checkRequired(region, invoiceStr, orderStr, receivedStr); err != nil {
		return nil, err
	}

	invoice, err := parseNumber("invoice", invoiceStr)
	if err != nil {
		return nil, err
	}

	order, err := parseNumber("order", orderStr)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Region:       region,
		Invoice:      invoiceStr,
		Order:        orderStr,
		ReceivedDate: receivedStr,
	}

	entry, err := s.catalog.Lookup(ctx, region, invoice, order)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			result.Message = "nota not found in planning catalog"
			return result, nil
		}

		return nil, fmt.Errorf("catalog lookup: %w", err)
	}

	result.PlannedDate = entry.PlanningToken

	if isManualReview(entry.Category, s.manualCategory) {
		result.Valid = true
		result.Decision = OutcomeManualReview
		result.Message = "category requires manual review"

		// The date still gets recorded when it happens to parse, but a bad
		// date never blocks a manual-review outcome.
		received, _ := dateparse.Parse(receivedStr)
		s.persist(ctx, result, invoice, order, received)

		return result, nil
	}

	planned, plannedErr := dateparse.Parse(entry.PlanningToken)
	received, receivedErr := dateparse.Parse(receivedStr)

	if plannedErr != nil || receivedErr != nil {
		result.Decision = OutcomeInvalidDate
		result.Message = invalidDateMessage(plannedErr, receivedErr)

		return result, nil
	}

	result.Decision = Decide(planned, received, "", s.manualCategory)
	result.Valid = true
	result.Message = "validation completed"

	s.persist(ctx, result, invoice, order, received)

	return result, nil
}

// persist attempts to store the validation outcome. Failures only annotate
// the result message so a storage outage never hides the decision.
func (s *Service) persist(ctx context.Context, result *Result, invoice, order int64, received dateparse.Date) {
	rec := &Record{
		Region:       result.Region,
		Invoice:      invoice,
		Order:        order,
		ReceivedDate: received.Time(),
		Valid:        result.Valid,
		PlannedDate:  result.PlannedDate,
		Decision:     result.Decision,
		Message:      result.Message,
	}

	err := s.store.Create(ctx, rec)
	switch {
	case err == nil:
	case errors.Is(err, ErrDuplicate):
		result.Message += "; record already exists, not saved again"
	default:
		result.Message += fmt.Sprintf("; warning: record not persisted: %v", err)
	}
}

func checkRequired(region, invoice, order, received string) error {
	fields := []struct {
		name  string
		value string
	}{
		{"region", region},
		{"invoice", invoice},
		{"order", order},
		{"received_date", received},
	}

	for _, f := range fields {
		if f.value == "" {
			return &InputError{Field: f.name, Reason: "required"}
		}
	}

	if len(region) > maxRegionLen {
		return &InputError{Field: "region", Reason: "must be at most 6 characters"}
	}

	return nil
}

func parseNumber(field, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, &InputError{Field: field, Reason: "must be a non-negative number"}
	}

	return n, nil
}

func invalidDateMessage(plannedErr, receivedErr error) string {
	switch {
	case plannedErr != nil && receivedErr != nil:
		return "planning token and received date have unrecognized formats"
	case plannedErr != nil:
		return "planning token has an unrecognized format"
	default:
		return "received date has an unrecognized format"
	}
}

// Get returns a single record by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.store.Get(ctx, id)
}

// FindByKey returns the record for a (region, invoice) key.
func (s *Service) FindByKey(ctx context.Context, region string, invoice int64) (*Record, error) {
	return s.store.FindByKey(ctx, strings.ToUpper(strings.TrimSpace(region)), invoice)
}

// List returns records matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Record, error) {
	return s.store.List(ctx, filter)
}

// Update applies a partial update to a record.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Record, error) {
	return s.store.Update(ctx, id, params)
}

// Delete removes a record, reporting whether it existed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.Delete(ctx, id)
}
