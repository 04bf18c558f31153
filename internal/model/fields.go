package model

// Field names as they appear in reports and diagnostics
const (
	FieldPolicyNumber     = "policy_number"
	FieldPolicyholderName = "policyholder_name"
	FieldClaimType        = "claim_type"
	FieldIncidentDate     = "incident_date"
	FieldContactPhone     = "contact_phone"
	FieldEstimatedDamage  = "estimated_damage"
	FieldLocation         = "location"
	FieldDescription      = "description"
)

// MandatoryFields lists the fields whose absence alone forces manual review.
// Order is the order names appear in ValidationResult.MissingFields.
var MandatoryFields = []string{
	FieldPolicyNumber,
	FieldPolicyholderName,
	FieldIncidentDate,
	FieldClaimType,
}

// ExtractedFields holds the normalized values pulled out of one FNOL document.
// A nil pointer means the field was not found. Absent fields marshal as null so
// every key is always present in the output.
type ExtractedFields struct {
	PolicyNumber     *string `json:"policy_number"`     // Uppercased policy token
	PolicyholderName *string `json:"policyholder_name"` // Name of the insured
	ClaimType        *string `json:"claim_type"`        // Stated or inferred (Auto, Property, Health)
	IncidentDate     *string `json:"incident_date"`     // ISO calendar date (YYYY-MM-DD)
	ContactPhone     *string `json:"contact_phone"`     // As written, trimmed
	EstimatedDamage  *int64  `json:"estimated_damage"`  // Currency-agnostic units, rounded
	Location         *string `json:"location"`          // Free text
	Description      *string `json:"description"`       // Loss narrative, may span lines

	// RawTextSnippet is the head of the normalized corpus, kept for audit only.
	// Neither validation nor routing reads it.
	RawTextSnippet string `json:"raw_text_snippet"`
}

// Text returns the string value of a named text field and whether it is present.
// estimated_damage is not a text field and always reports false.
func (f ExtractedFields) Text(name string) (string, bool) {
	var p *string
	switch name {
	case FieldPolicyNumber:
		p = f.PolicyNumber
	case FieldPolicyholderName:
		p = f.PolicyholderName
	case FieldClaimType:
		p = f.ClaimType
	case FieldIncidentDate:
		p = f.IncidentDate
	case FieldContactPhone:
		p = f.ContactPhone
	case FieldLocation:
		p = f.Location
	case FieldDescription:
		p = f.Description
	}
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

// Has reports whether the named field carries a value.
func (f ExtractedFields) Has(name string) bool {
	if name == FieldEstimatedDamage {
		return f.EstimatedDamage != nil
	}
	_, ok := f.Text(name)
	return ok
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int64Ptr returns a pointer to n.
func Int64Ptr(n int64) *int64 {
	return &n
}
