package dateparse_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoutinho/notacheck/internal/dateparse"
)

func TestParse(t *testing.T) {
	type testCase struct {
		name    string
		input   string
		want    dateparse.Date
		wantErr bool
	}

	tests := []testCase{
		{
			name:  "ISO full date",
			input: "2025-05-15",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 15},
		},
		{
			name:  "Slash full date year first",
			input: "2025/05/15",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 15},
		},
		{
			name:  "Brazilian day first",
			input: "15/05/2025",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 15},
		},
		{
			name:  "Day first wins on ambiguous input",
			input: "04/05/2025",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 4},
		},
		{
			name:  "Month first fallback when day slot exceeds 12",
			input: "05/13/2025",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 13},
		},
		{
			name:  "Dashed day first",
			input: "15-05-2025",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 15},
		},
		{
			name:  "Year month only defaults day to 1",
			input: "2025-05",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 1},
		},
		{
			name:  "Year month with slash",
			input: "2025/05",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 1},
		},
		{
			name:  "Planning token",
			input: "2025/maio",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 1},
		},
		{
			name:  "Planning token mixed case with spaces",
			input: " 2025/Dezembro ",
			want:  dateparse.Date{Year: 2025, Month: 12, Day: 1},
		},
		{
			name:  "Planning token without cedilla",
			input: "2026/marco",
			want:  dateparse.Date{Year: 2026, Month: 3, Day: 1},
		},
		{
			name:  "Planning token all caps agosto",
			input: "2025/AGOSTO",
			want:  dateparse.Date{Year: 2025, Month: 8, Day: 1},
		},
		{
			name:  "Planning token all caps setembro",
			input: "2025/SETEMBRO",
			want:  dateparse.Date{Year: 2025, Month: 9, Day: 1},
		},
		{
			name:  "Planning token all caps outubro",
			input: "2025/OUTUBRO",
			want:  dateparse.Date{Year: 2025, Month: 10, Day: 1},
		},
		{
			name:  "Trailing T time component stripped",
			input: "2025-05-15T10:30:00",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 15},
		},
		{
			name:  "Trailing lowercase t time component stripped",
			input: "2025-05-15t10:30:00",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 15},
		},
		{
			name:  "Trailing space time component stripped",
			input: "2025-05-15 10:30:00",
			want:  dateparse.Date{Year: 2025, Month: 5, Day: 15},
		},
		{
			name:    "Empty input",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "Garbage input",
			input:   "not a date",
			wantErr: true,
		},
		{
			name:    "Unknown month name",
			input:   "2025/januar",
			wantErr: true,
		},
		{
			name:    "Planning token without year",
			input:   "/maio",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dateparse.Parse(tt.input)

			if tt.wantErr {
				require.Error(t, err)

				var parseErr *dateparse.ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, tt.input, parseErr.Input)
				assert.False(t, got.Valid())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

// Parsing the ISO rendering of a successful parse must yield the same date.
func TestParse_IdempotentOnISOOutput(t *testing.T) {
	inputs := []string{"2025-05-15", "15/05/2025", "2025/maio", "2025/OUTUBRO", "2024-12"}

	for _, input := range inputs {
		first, err := dateparse.Parse(input)
		require.NoError(t, err)

		second, err := dateparse.Parse(first.ISO())
		require.NoError(t, err)
		assert.Equal(t, first, second, "input %q", input)
	}
}

func TestParse_NeverDefaultsToNow(t *testing.T) {
	_, err := dateparse.Parse("99/99/9999")
	require.Error(t, err)

	var parseErr *dateparse.ParseError
	assert.True(t, errors.As(err, &parseErr))
}
