package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{"₹12,345.50", 12346, true},
		{"12,344.50", 12344, true},
		{"$ 4,850.00", 4850, true},
		{"INR 1,85,000", 185000, true},
		{"24999", 24999, true},
		{"-5,000", -5000, true},
		{"12.49", 12, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"1.2.3", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeAmount(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIncidentDate(t *testing.T) {
	// yearless dates take the reference year
	ref := time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"2024-03-15", "2024-03-15", true},
		{"2024/3/5", "2024-03-05", true},
		{"03/15/2024", "2024-03-15", true},
		{"15/03/2024", "2024-03-15", true},
		{"3/5/24 around noon", "2024-03-05", true},
		{"March 15, 2024", "2024-03-15", true},
		{"Friday, Mar. 15th 2024 at 9pm", "2024-03-15", true},
		{"15 March 2024", "2024-03-15", true},
		{"the 2nd of March, 2024", "2024-03-02", true},
		{"Sept 2023", "2023-09-01", true},
		{"/Accident: 2023-11-30 (approx)", "2023-11-30", true},
		{"15-Mar-2024", "2024-03-15", true},
		{"Mar-15-2024", "2024-03-15", true},
		{"15/Mar/2024", "2024-03-15", true},
		{"15.March.2024", "2024-03-15", true},
		{"March 15", "2023-03-15", true},
		{"15 March", "2023-03-15", true},
		{"15th of March around 6pm", "2023-03-15", true},
		{"03/15", "2023-03-15", true},
		{"15/03", "2023-03-15", true},
		{"Feb 30", "", false},
		{"yesterday", "", false},
		{"", "", false},
		{"99/99/9999", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseIncidentDateAt(tt.raw, ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIncidentDate_YearlessUsesCurrentYear(t *testing.T) {
	got, ok := ParseIncidentDate("Jan 2")
	assert.True(t, ok)
	assert.Equal(t, time.Now().Format("2006")+"-01-02", got)
}
