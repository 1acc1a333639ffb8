package forecast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/warp/forecast-portal/forecast"
)

// buildWorkbook creates an xlsx with the given sheets, each sheet a
// slice of string rows.
func buildWorkbook(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &cells))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadWorkbook_JoinsThreeSheets(t *testing.T) {
	data := buildWorkbook(t, map[string][][]string{
		forecast.SheetCalls: {
			{"Period", "2025-01-06", "2025-01-07"},
			{"08:00", "120", "135"},
		},
		forecast.SheetAHT: {
			{"Period", "2025-01-06", "2025-01-07"},
			{"08:00", "300", "310"},
		},
		forecast.SheetFTE: {
			{"Period", "2025-01-06", "2025-01-07"},
			{"08:00", "5", "6"},
		},
	})

	rows, err := forecast.ReadWorkbookBytes(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "08:00", rows[0].Period)
}

func TestReadWorkbook_MissingSheetFailsWholeUpload(t *testing.T) {
	data := buildWorkbook(t, map[string][][]string{
		forecast.SheetCalls: {
			{"Period", "2025-01-06"},
			{"08:00", "120"},
		},
		forecast.SheetAHT: {
			{"Period", "2025-01-06"},
			{"08:00", "300"},
		},
		// Origins3 absent
	})

	_, err := forecast.ReadWorkbookBytes(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), forecast.SheetFTE)
}

func TestReadWorkbook_MismatchedSheetShrinksOutput(t *testing.T) {
	// GIVEN: One sheet missing a date present in the others
	data := buildWorkbook(t, map[string][][]string{
		forecast.SheetCalls: {
			{"Period", "2025-01-06", "2025-01-07", "2025-01-08"},
			{"08:00", "120", "135", "140"},
		},
		forecast.SheetAHT: {
			{"Period", "2025-01-06", "2025-01-07", "2025-01-08"},
			{"08:00", "300", "310", "320"},
		},
		forecast.SheetFTE: {
			{"Period", "2025-01-06", "2025-01-07"},
			{"08:00", "5", "6"},
		},
	})

	rows, err := forecast.ReadWorkbookBytes(data)
	require.NoError(t, err)

	// THEN: Strictly fewer rows than the largest sheet's observations
	largestSheetObservations := 3
	assert.Less(t, len(rows), largestSheetObservations)
	assert.Len(t, rows, 2)
}

func TestReadWorkbook_NotAnExcelFile(t *testing.T) {
	_, err := forecast.ReadWorkbookBytes([]byte("definitely not a workbook"))
	assert.Error(t, err)
}
