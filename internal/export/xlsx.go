// Package export writes batch outcomes as an XLSX workbook for claims operations.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/fnolroute/internal/model"
)

// SheetName is the worksheet holding one row per document
const SheetName = "Claims"

// Row is one processed document
type Row struct {
	Path   string
	Report *model.Report // nil when processing failed
	Err    error
}

var headers = []string{
	"Document",
	"Route",
	"Reasoning",
	"Policy Number",
	"Policyholder",
	"Claim Type",
	"Incident Date",
	"Estimated Damage",
	"Missing Fields",
	"Inconsistencies",
	"Investigation",
	"Error",
}

// Workbook builds XLSX bytes for a batch run
type Workbook struct {
	logger *slog.Logger
}

// NewWorkbook creates a workbook builder
func NewWorkbook(logger *slog.Logger) *Workbook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbook{logger: logger}
}

// Build returns an XLSX workbook (as bytes) with one row per document, in the given order.
func (w *Workbook) Build(rows []Row) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// Rename the default sheet so the workbook has exactly one
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		write(1, r.Path)
		if r.Report == nil {
			if r.Err != nil {
				write(12, r.Err.Error())
			}
			continue
		}

		rep := r.Report
		fields := rep.ExtractedFields
		write(2, string(rep.RecommendedRoute))
		write(3, rep.Reasoning)
		write(4, deref(fields.PolicyNumber))
		write(5, deref(fields.PolicyholderName))
		write(6, deref(fields.ClaimType))
		write(7, deref(fields.IncidentDate))
		if fields.EstimatedDamage != nil {
			write(8, *fields.EstimatedDamage)
		}
		write(9, strings.Join(rep.Validation.MissingFields, ", "))
		write(10, strings.Join(rep.Validation.Inconsistencies, ", "))
		write(11, yesNo(rep.Validation.InvestigationFlag))
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetName, "A", "A", 36) // document
	_ = f.SetColWidth(SheetName, "B", "B", 18) // route
	_ = f.SetColWidth(SheetName, "C", "C", 60) // reasoning
	_ = f.SetColWidth(SheetName, "D", "G", 18)
	_ = f.SetColWidth(SheetName, "I", "J", 32)
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	w.logger.Info("xlsx export built",
		"rows", len(rows),
		"bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
