package verification

import (
	"strings"

	"github.com/dcoutinho/notacheck/internal/dateparse"
)

// Decide applies the month/year ordering rule to a planned and a received
// date. A non-empty category equal to manualCategory short-circuits to
// OutcomeManualReview before any date is looked at. An unparsed side
// (year 0 or month 0) yields OutcomeInvalidDate.
//
// Equality of year and month favors OutcomeOpenNow: a nota received inside
// its planned month does not wait for month-close.
func Decide(planned, received dateparse.Date, category, manualCategory string) Outcome {
	if isManualReview(category, manualCategory) {
		return OutcomeManualReview
	}

	if !planned.Valid() || !received.Valid() {
		return OutcomeInvalidDate
	}

	if planned.Year < received.Year {
		return OutcomeOpenNow
	}

	if planned.Year == received.Year && planned.Month <= received.Month {
		return OutcomeOpenNow
	}

	return OutcomeWaitMonthClose
}

func isManualReview(category, manualCategory string) bool {
	category = strings.TrimSpace(category)
	if category == "" || manualCategory == "" {
		return false
	}

	return strings.EqualFold(category, strings.TrimSpace(manualCategory))
}
