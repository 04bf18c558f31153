package validate

import (
	"strings"
	"time"

	"github.com/ppiankov/fnolroute/internal/model"
)

const isoDateLayout = "2006-01-02"

// Validator checks extracted fields for completeness and internal consistency.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	now func() time.Time
}

// Option configures a Validator
type Option func(*Validator)

// WithClock sets the clock used by the future-date check (tests pin it)
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewValidator creates a new validator
func NewValidator(opts ...Option) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every rule and aggregates the findings. It never fails; parse
// problems surface as inconsistency codes.
func (v *Validator) Validate(f model.ExtractedFields) model.ValidationResult {
	result := model.ValidationResult{
		MissingFields:   []string{},
		Inconsistencies: []string{},
	}

	// 1. Completeness
	for _, name := range model.MandatoryFields {
		if !f.Has(name) {
			result.MissingFields = append(result.MissingFields, name)
		}
	}

	// 2. Date sanity
	if raw, ok := f.Text(model.FieldIncidentDate); ok {
		if code := v.checkDate(raw); code != "" {
			result.Inconsistencies = append(result.Inconsistencies, code)
		}
	}

	// 3. Amount sanity
	if f.EstimatedDamage != nil && *f.EstimatedDamage < 0 {
		result.Inconsistencies = append(result.Inconsistencies, model.CodeNegativeDamage)
	}

	// 4. Claim type vs description
	desc, hasDesc := f.Text(model.FieldDescription)
	if hasDesc {
		result.Inconsistencies = append(result.Inconsistencies, mismatches(f, desc)...)
	}

	// 5. Fraud language
	if hasDesc && len(model.FindSuspiciousTerms(desc)) > 0 {
		result.InvestigationFlag = true
	}

	// 6. Phone plausibility
	if phone, ok := f.Text(model.FieldContactPhone); ok && countDigits(phone) < 7 {
		result.Inconsistencies = append(result.Inconsistencies, model.CodePhoneTooShort)
	}

	return result
}

// checkDate compares an ISO date against today's calendar date in the clock's location
func (v *Validator) checkDate(raw string) string {
	d, err := time.ParseInLocation(isoDateLayout, raw, time.UTC)
	if err != nil {
		return model.CodeIncidentDateUnparseable
	}
	now := v.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.After(today) {
		return model.CodeIncidentDateInFuture
	}
	return ""
}

// mismatches returns a code for every category the description mentions that a
// stated claim type does not name, in vocabulary order.
func mismatches(f model.ExtractedFields, desc string) []string {
	claimType, ok := f.Text(model.FieldClaimType)
	if !ok {
		return nil
	}
	lowerDesc := strings.ToLower(desc)
	lowerType := strings.ToLower(claimType)

	var codes []string
	for _, ck := range model.ClaimVocabulary {
		if ck.Mentions(lowerDesc) && !ck.AgreesWith(lowerType) {
			codes = append(codes, model.MismatchCode(ck.Category))
		}
	}
	return codes
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
