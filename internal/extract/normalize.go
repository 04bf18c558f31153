package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// NormalizeAmount keeps digits, '.' and '-' from a money string and rounds the
// result half-to-even, so "₹12,345.50" becomes 12346 and "12,344.50" becomes 12344.
// Empty or unparseable input reports false.
func NormalizeAmount(raw string) (int64, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	v = math.RoundToEven(v)
	if v > math.MaxInt64 || v < math.MinInt64 {
		return 0, false
	}
	return int64(v), true
}

const monthNames = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

// sep joins the parts of a month-name date: "15 Mar 2024", "15-Mar-2024", "Mar/15/2024"
const sep = `[-/. \t]+`

// Date shapes tried in order against the text that follows a date label.
// Forms with a year come first; the yearless forms only apply when none matched.
var (
	isoDate       = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	numericDate   = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{2,4})\b`)
	dayMonthYear  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?` + sep + `(?:of[ \t]+)?` + monthNames + `,?` + sep + `(\d{4})\b`)
	monthDayYear  = regexp.MustCompile(`(?i)\b` + monthNames + sep + `(\d{1,2})(?:st|nd|rd|th)?,?` + sep + `(\d{4})\b`)
	monthYearOnly = regexp.MustCompile(`(?i)\b` + monthNames + `,?` + sep + `(\d{4})\b`)
	dayMonth      = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?` + sep + `(?:of[ \t]+)?` + monthNames + `(?:[^a-z]|$)`)
	monthDay      = regexp.MustCompile(`(?i)\b` + monthNames + sep + `(\d{1,2})(?:st|nd|rd|th)?\b`)
	numericNoYear = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})\b`)
)

// ParseIncidentDate finds a calendar date inside free text such as
// "03/15/2024 at approx 10pm" or "the 2nd of March, 2024" and returns it as
// YYYY-MM-DD. A date without a year takes the current year.
func ParseIncidentDate(raw string) (string, bool) {
	return ParseIncidentDateAt(raw, time.Now())
}

// ParseIncidentDateAt is ParseIncidentDate with an explicit reference time for
// dates that omit the year. Numeric dates are read month-first, then day-first
// when the month-first reading is impossible. A month and year with no day
// resolve to the first of the month.
func ParseIncidentDateAt(raw string, ref time.Time) (string, bool) {
	for _, candidate := range dateCandidates(raw, ref.Year()) {
		t, err := dateparse.ParseIn(candidate, time.UTC)
		if err != nil {
			continue
		}
		return t.Format("2006-01-02"), true
	}
	return "", false
}

// dateCandidates rewrites each recognizable date shape into a form the parser
// reads unambiguously.
func dateCandidates(raw string, year int) []string {
	var out []string
	if m := isoDate.FindStringSubmatch(raw); m != nil {
		out = append(out, m[1]+"-"+pad2(m[2])+"-"+pad2(m[3]))
	}
	if m := numericDate.FindStringSubmatch(raw); m != nil {
		out = append(out, numericCandidates(m[1], m[2], m[3])...)
	}
	if m := dayMonthYear.FindStringSubmatch(raw); m != nil {
		out = append(out, m[1]+" "+monthAbbrev(m[2])+" "+m[3])
	}
	if m := monthDayYear.FindStringSubmatch(raw); m != nil {
		out = append(out, monthAbbrev(m[1])+" "+m[2]+", "+m[3])
	}
	if m := monthYearOnly.FindStringSubmatch(raw); m != nil {
		out = append(out, monthAbbrev(m[1])+" 1, "+m[2])
	}
	if len(out) > 0 {
		return out
	}

	y := strconv.Itoa(year)
	if m := dayMonth.FindStringSubmatch(raw); m != nil {
		out = append(out, m[1]+" "+monthAbbrev(m[2])+" "+y)
	}
	if m := monthDay.FindStringSubmatch(raw); m != nil {
		out = append(out, monthAbbrev(m[1])+" "+m[2]+", "+y)
	}
	if m := numericNoYear.FindStringSubmatch(raw); m != nil {
		out = append(out, numericCandidates(m[1], m[2], y)...)
	}
	return out
}

// numericCandidates reads a/b/year month-first, adding the day-first reading
// when a cannot be a month
func numericCandidates(a, b, year string) []string {
	out := []string{a + "/" + b + "/" + year}
	if n, _ := strconv.Atoi(a); n > 12 {
		out = append(out, b+"/"+a+"/"+year)
	}
	return out
}

func monthAbbrev(name string) string {
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:3])
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
