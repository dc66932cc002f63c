package services

import (
	"bytes"
	"fmt"
	"time"

	"agrireport-backend-go/internal/models"

	"github.com/xuri/excelize/v2"
)

var reportExportHeader = []string{
	"Report ID",
	"Submitted",
	"Type",
	"Status",
	"Reporter",
	"Username",
	"RSBSA ID",
	"Barangay",
	"Latitude",
	"Longitude",
	"Has Photo",
	"Admin Notes",
	"Verified At",
	"Details",
}

var reportExportWidths = []float64{38, 20, 10, 12, 28, 18, 20, 20, 12, 12, 10, 40, 20, 60}

const reportSheet = "Reports"

// ExportReports renders rows as an xlsx workbook.
func ExportReports(rows []models.ReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	_ = f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	for col, header := range reportExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(reportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("header %s: %w", cell, err)
		}
		_ = f.SetCellStyle(reportSheet, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(col + 1)
		_ = f.SetColWidth(reportSheet, name, name, reportExportWidths[col])
	}

	for i, row := range rows {
		values := []interface{}{
			row.ID,
			row.CreatedAt.Format(time.DateTime),
			row.Type,
			row.Status,
			deref(row.ReporterName),
			row.ReporterUsername,
			deref(row.RsbsaID),
			deref(row.Barangay),
			floatOrBlank(row.Latitude),
			floatOrBlank(row.Longitude),
			yesNo(row.HasPhoto),
			deref(row.AdminNotes),
			timeOrBlank(row.VerifiedAt),
			string(row.Details),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	_ = f.SetPanes(reportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func floatOrBlank(value *float64) interface{} {
	if value == nil {
		return ""
	}
	return *value
}

func timeOrBlank(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format(time.DateTime)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
