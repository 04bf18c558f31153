package contract

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fnolroute/internal/extract"
	"github.com/ppiankov/fnolroute/internal/model"
	"github.com/ppiankov/fnolroute/internal/route"
	"github.com/ppiankov/fnolroute/internal/validate"
)

func build(text string) *model.Report {
	fields := extract.NewFieldExtractor().Extract(text)
	v := validate.NewValidator(validate.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	})).Validate(fields)
	return model.NewReport(fields, v, route.NewRouter(0).Route(fields, v))
}

func TestValidateReport_Samples(t *testing.T) {
	for _, path := range []string{"../../samples/fnol-auto.txt", "../../samples/fnol-property.txt"} {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NoError(t, ValidateReport(build(string(raw))), path)
	}
}

func TestValidateReport_DegenerateInputs(t *testing.T) {
	inputs := []string{
		"",
		"%%%% \x00 garbage",
		"Policy Number: A1\nDate of Loss: 2099-01-01\nEstimated Loss: -40\nPhone: 12\nDescription: staged rear collision",
	}
	for _, in := range inputs {
		report := build(in)
		assert.NoError(t, ValidateReport(report), "%q", in)
	}
}

func TestValidateJSON_Rejects(t *testing.T) {
	tests := map[string]string{
		"not json":       `{`,
		"missing route":  `{"extractedFields":{},"validation":{},"reasoning":"x"}`,
		"unknown route":  `{"extractedFields":{"policy_number":null,"policyholder_name":null,"claim_type":null,"incident_date":null,"contact_phone":null,"estimated_damage":null,"location":null,"description":null,"raw_text_snippet":""},"validation":{"missingFields":[],"inconsistencies":[],"investigation_flag":false},"recommendedRoute":"Somewhere","reasoning":"x"}`,
		"fractional amt": `{"extractedFields":{"policy_number":null,"policyholder_name":null,"claim_type":null,"incident_date":null,"contact_phone":null,"estimated_damage":12.5,"location":null,"description":null,"raw_text_snippet":""},"validation":{"missingFields":[],"inconsistencies":[],"investigation_flag":false},"recommendedRoute":"Fast-track","reasoning":"x"}`,
		"empty string":   `{"extractedFields":{"policy_number":"","policyholder_name":null,"claim_type":null,"incident_date":null,"contact_phone":null,"estimated_damage":null,"location":null,"description":null,"raw_text_snippet":""},"validation":{"missingFields":[],"inconsistencies":[],"investigation_flag":false},"recommendedRoute":"Fast-track","reasoning":"x"}`,
		"bad date":       `{"extractedFields":{"policy_number":null,"policyholder_name":null,"claim_type":null,"incident_date":"03/14/2024","contact_phone":null,"estimated_damage":null,"location":null,"description":null,"raw_text_snippet":""},"validation":{"missingFields":[],"inconsistencies":[],"investigation_flag":false},"recommendedRoute":"Fast-track","reasoning":"x"}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateJSON([]byte(doc)))
		})
	}
}

func TestSchemaIsCopy(t *testing.T) {
	s := Schema()
	s[0] = 'X'
	assert.Equal(t, byte('{'), Schema()[0])
}
