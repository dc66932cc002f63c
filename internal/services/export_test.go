package services

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"agrireport-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportReports(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	rows := []models.ReportRow{
		{
			Report: models.Report{
				ID:        "report-1",
				Type:      "pest",
				Status:    "verified",
				Details:   json.RawMessage(`{"pest":"armyworm"}`),
				Barangay:  strPtr("Poblacion"),
				Latitude:  floatPtr(6.5),
				HasPhoto:  true,
				CreatedAt: created,
			},
			ReporterUsername: "juan_dc",
			ReporterName:     strPtr("Juan Dela Cruz"),
			RsbsaID:          strPtr("12-63-01-001"),
		},
	}

	data, err := ExportReports(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Reports", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Report ID", header)

	got := func(cell string) string {
		v, err := f.GetCellValue("Reports", cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "report-1", got("A2"))
	assert.Equal(t, "2025-03-14 09:30:00", got("B2"))
	assert.Equal(t, "pest", got("C2"))
	assert.Equal(t, "Juan Dela Cruz", got("E2"))
	assert.Equal(t, "Yes", got("K2"))
	assert.Equal(t, "", got("M2"))
	assert.Equal(t, `{"pest":"armyworm"}`, got("N2"))
}
