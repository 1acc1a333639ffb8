/*
reshape.go - Wide-to-long reshaping of forecast sheets

PURPOSE:
  Converts the three wide-format forecast sheets (one row per reporting
  period, one column per calendar date) into long-format records and
  inner-joins them into the final forecast rows loaded into the warehouse.

SHAPE:
  Wide input (per sheet):
    Period | 2025-01-06 | 2025-01-07 | ...
    08:00  |       120  |       135  | ...

  Long output (per sheet):
    {period: "08:00", date: 2025-01-06, value: 120}

  Final row (join of calls/AHT/staffing on (period, date)):
    {period, date, calls_forecast, aht_forecast, fte_required}

JOIN SEMANTICS:
  Strict inner join: a (period, date) key must appear in all three
  inputs to produce output. If a key appears more than once in any
  input, every matching combination is emitted (multiplicity compounds,
  no deduplication).

DATE PARSING:
  Column headers are parsed against a fixed set of calendar layouts.
  Headers that do not parse are dropped record-by-record; they never
  fail the sheet.

PRECISION:
  Cell values are carried as decimal.Decimal through the reshape and
  join, and converted to float64 only at the warehouse boundary.

SEE ALSO:
  - workbook.go: Reads the three sheets out of an Excel workbook
  - warehouse/warehouse.go: Loads the joined rows
*/
package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodColumn is the required identifier column header of each wide sheet.
const PeriodColumn = "Period"

// LongRecord is one observation produced by unpivoting a wide sheet.
type LongRecord struct {
	Period string
	Date   time.Time
	Value  decimal.Decimal
}

// Row is the inner join of the three long record streams on (period, date).
type Row struct {
	Period string
	Date   time.Time
	Calls  decimal.Decimal
	AHT    decimal.Decimal
	FTE    decimal.Decimal
}

// dateLayouts are the calendar formats accepted for column headers.
// Excel renders date cells in several shapes depending on cell style,
// so both ISO and US forms are tried.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2-Jan-06",
	time.RFC3339,
}

// ParseDate parses a column header into a calendar date. The time
// component, if any, is truncated to midnight UTC.
func ParseDate(header string) (time.Time, bool) {
	s := strings.TrimSpace(header)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Melt unpivots one wide sheet into long records.
//
// The first row is the header and must start with the Period column.
// Every other header cell is a candidate date column: headers that do
// not parse as dates are skipped (along with their cells), as are
// cells whose value is blank or non-numeric. Melt only fails on a
// structurally unusable sheet (empty, or wrong identifier column).
func Melt(rows [][]string) ([]LongRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	header := rows[0]
	if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(header[0]), PeriodColumn) {
		return nil, fmt.Errorf("first column must be %q", PeriodColumn)
	}

	// Parse date headers once; unparseable headers drop the whole column.
	dates := make([]time.Time, len(header))
	valid := make([]bool, len(header))
	for i := 1; i < len(header); i++ {
		dates[i], valid[i] = ParseDate(header[i])
	}

	var records []LongRecord
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		period := strings.TrimSpace(row[0])
		if period == "" {
			continue
		}
		for i := 1; i < len(header) && i < len(row); i++ {
			if !valid[i] {
				continue
			}
			cell := strings.TrimSpace(row[i])
			if cell == "" {
				continue
			}
			value, err := decimal.NewFromString(cell)
			if err != nil {
				continue
			}
			records = append(records, LongRecord{Period: period, Date: dates[i], Value: value})
		}
	}

	return records, nil
}

// joinKey identifies one (period, date) observation.
type joinKey struct {
	period string
	date   time.Time
}

// Join inner-joins the calls, average-handle-time and required-staffing
// record streams on (period, date). Keys missing from any input are
// dropped. Duplicate keys compound: every matching (calls, aht, fte)
// combination produces one output row. Output order follows the calls
// stream.
func Join(calls, aht, fte []LongRecord) []Row {
	ahtByKey := groupByKey(aht)
	fteByKey := groupByKey(fte)

	var out []Row
	for _, c := range calls {
		key := joinKey{c.Period, c.Date}
		for _, a := range ahtByKey[key] {
			for _, f := range fteByKey[key] {
				out = append(out, Row{
					Period: c.Period,
					Date:   c.Date,
					Calls:  c.Value,
					AHT:    a,
					FTE:    f,
				})
			}
		}
	}
	return out
}

func groupByKey(records []LongRecord) map[joinKey][]decimal.Decimal {
	m := make(map[joinKey][]decimal.Decimal, len(records))
	for _, r := range records {
		key := joinKey{r.Period, r.Date}
		m[key] = append(m[key], r.Value)
	}
	return m
}
