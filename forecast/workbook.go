/*
workbook.go - Excel workbook ingestion

PURPOSE:
  Reads the uploaded forecast workbook and produces the joined forecast
  rows. The workbook must carry three sheets in the fixed naming scheme
  used by the planning team's export:

    Origins   call volume forecast
    Origins2  average handle time forecast
    Origins3  required staffing forecast

  A missing sheet fails the whole upload; there is no partial ingestion.

SEE ALSO:
  - reshape.go: Melt and Join
  - api/handlers.go: UploadForecast handler
*/
package forecast

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names expected in the uploaded workbook.
const (
	SheetCalls = "Origins"
	SheetAHT   = "Origins2"
	SheetFTE   = "Origins3"
)

// ReadWorkbook parses an xlsx stream and returns the joined forecast rows.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	calls, err := meltSheet(f, SheetCalls)
	if err != nil {
		return nil, err
	}
	aht, err := meltSheet(f, SheetAHT)
	if err != nil {
		return nil, err
	}
	fte, err := meltSheet(f, SheetFTE)
	if err != nil {
		return nil, err
	}

	return Join(calls, aht, fte), nil
}

// ReadWorkbookBytes is a convenience wrapper around ReadWorkbook.
func ReadWorkbookBytes(data []byte) ([]Row, error) {
	return ReadWorkbook(bytes.NewReader(data))
}

func meltSheet(f *excelize.File, name string) ([]LongRecord, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("missing required sheet %q: %w", name, err)
	}
	records, err := Melt(rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", name, err)
	}
	return records, nil
}
