package model

// Inconsistency codes emitted by the validator
const (
	CodeIncidentDateUnparseable = "incident_date_unparseable"
	CodeIncidentDateInFuture    = "incident_date_in_future"
	CodeNegativeDamage          = "negative_estimated_damage"
	CodeMismatchAuto            = "claim_type_mismatch_with_description_auto"
	CodeMismatchProperty        = "claim_type_mismatch_with_description_property"
	CodeMismatchHealth          = "claim_type_mismatch_with_description_health"
	CodePhoneTooShort           = "contact_phone_too_short"
)

// MismatchCode returns the contradiction code for a category.
func MismatchCode(c Category) string {
	switch c {
	case CategoryAuto:
		return CodeMismatchAuto
	case CategoryProperty:
		return CodeMismatchProperty
	case CategoryHealth:
		return CodeMismatchHealth
	default:
		return ""
	}
}

// ValidationResult contains the diagnostics computed from one ExtractedFields snapshot
type ValidationResult struct {
	MissingFields     []string `json:"missingFields"`      // Mandatory fields that are absent
	Inconsistencies   []string `json:"inconsistencies"`    // Diagnostic codes in rule order
	InvestigationFlag bool     `json:"investigation_flag"` // Fraud language in the description
}

// HasMissing reports whether any mandatory field is absent.
func (v ValidationResult) HasMissing() bool {
	return len(v.MissingFields) > 0
}
