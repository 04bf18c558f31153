package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/fnolroute/internal/model"
)

func TestWorkbook_Build(t *testing.T) {
	policy := "PA-1"
	rows := []Row{
		{
			Path: "a.txt",
			Report: &model.Report{
				ExtractedFields:  model.ExtractedFields{PolicyNumber: &policy, EstimatedDamage: model.Int64Ptr(4850)},
				Validation:       model.ValidationResult{MissingFields: []string{"policyholder_name", "claim_type"}},
				RecommendedRoute: model.RouteManualReview,
				Reasoning:        "Missing mandatory fields: policyholder_name, claim_type",
			},
		},
		{Path: "b.pdf", Err: errors.New("pipeline fault: boom")},
	}

	data, err := NewWorkbook(nil).Build(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Document", got[0][0])
	assert.Equal(t, "Error", got[0][11])

	assert.Equal(t, "a.txt", got[1][0])
	assert.Equal(t, "Manual Review", got[1][1])
	assert.Equal(t, "PA-1", got[1][3])
	assert.Equal(t, "4850", got[1][7])
	assert.Equal(t, "policyholder_name, claim_type", got[1][8])
	assert.Equal(t, "no", got[1][10])

	assert.Equal(t, "b.pdf", got[2][0])
	assert.Equal(t, "pipeline fault: boom", got[2][11])
}

func TestWorkbook_BuildEmpty(t *testing.T) {
	data, err := NewWorkbook(nil).Build(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
