package verification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dcoutinho/notacheck/internal/dateparse"
	"github.com/dcoutinho/notacheck/internal/verification"
)

func TestDecide(t *testing.T) {
	type args struct {
		planned  dateparse.Date
		received dateparse.Date
		category string
	}

	type testCase struct {
		name string
		args args
		want verification.Outcome
	}

	tests := []testCase{
		{
			name: "PlannedMonthEqualsReceivedMonth",
			args: args{
				planned:  dateparse.Date{Year: 2025, Month: 5},
				received: dateparse.Date{Year: 2025, Month: 5, Day: 15},
			},
			want: verification.OutcomeOpenNow,
		},
		{
			name: "PlannedMonthBeforeReceivedMonth",
			args: args{
				planned:  dateparse.Date{Year: 2025, Month: 3},
				received: dateparse.Date{Year: 2025, Month: 5, Day: 2},
			},
			want: verification.OutcomeOpenNow,
		},
		{
			name: "PlannedYearBeforeReceivedYear",
			args: args{
				planned:  dateparse.Date{Year: 2024, Month: 12},
				received: dateparse.Date{Year: 2025, Month: 1, Day: 2},
			},
			want: verification.OutcomeOpenNow,
		},
		{
			name: "PlannedMonthAfterReceivedMonth",
			args: args{
				planned:  dateparse.Date{Year: 2025, Month: 5},
				received: dateparse.Date{Year: 2025, Month: 4, Day: 1},
			},
			want: verification.OutcomeWaitMonthClose,
		},
		{
			name: "PlannedYearAfterReceivedYear",
			args: args{
				planned:  dateparse.Date{Year: 2026, Month: 1},
				received: dateparse.Date{Year: 2025, Month: 12, Day: 31},
			},
			want: verification.OutcomeWaitMonthClose,
		},
		{
			name: "UnparsedPlanned",
			args: args{
				planned:  dateparse.Date{},
				received: dateparse.Date{Year: 2025, Month: 5, Day: 15},
			},
			want: verification.OutcomeInvalidDate,
		},
		{
			name: "UnparsedReceived",
			args: args{
				planned:  dateparse.Date{Year: 2025, Month: 5},
				received: dateparse.Date{},
			},
			want: verification.OutcomeInvalidDate,
		},
		{
			name: "ManualReviewCategory",
			args: args{
				planned:  dateparse.Date{Year: 2026, Month: 1},
				received: dateparse.Date{Year: 2025, Month: 5, Day: 15},
				category: "engenharia de redes",
			},
			want: verification.OutcomeManualReview,
		},
		{
			name: "ManualReviewCategoryIsCaseInsensitive",
			args: args{
				planned:  dateparse.Date{},
				received: dateparse.Date{},
				category: "Engenharia de Redes",
			},
			want: verification.OutcomeManualReview,
		},
		{
			name: "OtherCategoryFollowsDates",
			args: args{
				planned:  dateparse.Date{Year: 2025, Month: 5},
				received: dateparse.Date{Year: 2025, Month: 4, Day: 1},
				category: "infraestrutura",
			},
			want: verification.OutcomeWaitMonthClose,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := verification.Decide(
				tt.args.planned,
				tt.args.received,
				tt.args.category,
				verification.CategoryNetworkEngineering,
			)

			assert.Equal(t, tt.want, got)
		})
	}
}
