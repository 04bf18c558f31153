package extract

import (
	"regexp"

	"github.com/ppiankov/fnolroute/internal/model"
)

// Rule binds one label pattern to a field. The first capture group is the raw value.
type Rule struct {
	Field   string
	Name    string
	Pattern *regexp.Regexp
}

func newRule(field, name, expr string) Rule {
	return Rule{Field: field, Name: name, Pattern: regexp.MustCompile(`(?i)` + expr)}
}

// DefaultRules is the ordered rule table. Within a field, earlier rules win even
// when a later rule matches nearer the top of the document.
//
// Label-to-value gaps use [:\s]* so a value printed on the line below its label
// is still found. Value classes exclude newlines so a capture stays on one line.
// Amount captures take in-line spaces so "30 000" and "45, 000" keep every digit
// group; NormalizeAmount strips the separators.
var DefaultRules = []Rule{
	newRule(model.FieldPolicyNumber, "policy_number", `Policy\s*Number[:#\s]*([A-Z0-9][A-Z0-9\-/]*)`),
	newRule(model.FieldPolicyNumber, "policy_no", `Policy\s*No\.?[:#\s]*([A-Z0-9][A-Z0-9\-/]*)`),
	newRule(model.FieldPolicyNumber, "policy_hash", `Policy\s*#[:\s]*([A-Z0-9][A-Z0-9\-/]*)`),

	newRule(model.FieldPolicyholderName, "name_of_insured", `Name\s*of\s*(?:the\s*)?Insured[:\s]*([A-Za-z][A-Za-z ,.'\-()]*)`),
	newRule(model.FieldPolicyholderName, "policyholder", `Policy\s*holder(?:\s*Name)?[:\s]*([A-Za-z][A-Za-z ,.'\-()]*)`),
	newRule(model.FieldPolicyholderName, "insured", `\bInsured(?:\s*Name)?\s*:[ \t]*([A-Za-z][A-Za-z ,.'\-()]*)`),

	newRule(model.FieldClaimType, "type_of_loss", `Type\s*of\s*(?:Loss|Claim)[:\s]*([A-Za-z][A-Za-z /&\-]*)`),
	newRule(model.FieldClaimType, "claim_type", `Claim\s*Type[:\s]*([A-Za-z][A-Za-z /&\-]*)`),
	newRule(model.FieldClaimType, "loss_type", `Loss\s*Type[:\s]*([A-Za-z][A-Za-z /&\-]*)`),

	newRule(model.FieldIncidentDate, "date_of_loss", `Date\s*of\s*(?:Loss|Incident|Accident)[:\s]*([^\n]+)`),
	newRule(model.FieldIncidentDate, "incident_date", `(?:Incident|Loss|Accident)\s*Date[:\s]*([^\n]+)`),
	newRule(model.FieldIncidentDate, "date_of_occurrence", `Date\s*of\s*Occurrence[:\s]*([^\n]+)`),

	newRule(model.FieldContactPhone, "phone", `\b(?:Contact\s*)?(?:Phone|Mobile|Tel(?:ephone)?)(?:\s*(?:Number|No\.?))?[:\s]*([+(]?\d[\d()\-. \t]*)`),

	newRule(model.FieldEstimatedDamage, "estimated_loss", `Estimated\s*(?:Loss|Damage)[^\n0-9]{0,24}?(-?\d[\d,. \t]*)`),
	newRule(model.FieldEstimatedDamage, "estimate_of_loss", `Estimate\s*of\s*(?:Loss|Damage)[^\n0-9]{0,24}?(-?\d[\d,. \t]*)`),
	newRule(model.FieldEstimatedDamage, "amount_of_loss", `Amount\s*of\s*Loss[^\n0-9]{0,24}?(-?\d[\d,. \t]*)`),

	newRule(model.FieldLocation, "location_of_loss", `Location\s*of\s*(?:Loss|Incident|Accident)[:\s]*([A-Za-z0-9][A-Za-z0-9 ,.#'/\-]*)`),
	newRule(model.FieldLocation, "location", `\bLocation[:\s]*([A-Za-z0-9][A-Za-z0-9 ,.#'/\-]*)`),
	newRule(model.FieldLocation, "place", `\bPlace(?:\s*of\s*(?:Loss|Incident|Accident))?[:\s]*([A-Za-z0-9][A-Za-z0-9 ,.#'/\-]*)`),

	// First line after the label plus any following lines that do not start a new "Label:" entry.
	newRule(model.FieldDescription, "description", `Description[^\n:]{0,30}:[ \t]*([^\n]+(?:\n[^\n:]+){0,10})`),
}

// descriptionLabels are the line tokens used when no direct description label matched.
var descriptionLabels = regexp.MustCompile(`(?i)(Description|Narrative|Details)`)

// policyFallback is a loose last resort for policy numbers: the first all-caps
// alphanumeric token of four or more characters. It can pick up form codes.
var policyFallback = regexp.MustCompile(`\b[A-Z0-9]{4,}\b`)
