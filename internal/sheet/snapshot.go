// The tracked-table side of the engine: the spreadsheet snapshot the
// matcher reconciles against, the batched writes a pass accumulates,
// and the Google Sheets backend that applies them.
package sheet

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Column positions in the tracked sheet (0-based within a row).
const (
	ColDate = iota
	ColCompany
	ColTitle
	ColStatus
	ColSource
	ColContact
	columnCount
)

// StatusRejected is terminal: a row that reached it is never
// overwritten by a later status change.
const StatusRejected = "Rejected"

// TrackedRow is one existing entry in the tracked table. Index is the
// 0-based position within the data rows (header excluded).
type TrackedRow struct {
	Index   int
	Date    time.Time
	Company string
	Title   string
	URL     string
	Status  string
	Source  string
	Contact string
}

// Snapshot is the pre-pass read of the tracked table. All matching in
// a pass happens against this snapshot; rows inserted during the pass
// are not visible to it.
type Snapshot struct {
	Rows       []TrackedRow
	HeaderRows int
}

// SheetRow converts a data-row index to its 1-based sheet row number.
func (s *Snapshot) SheetRow(index int) int {
	return s.HeaderRows + index + 1
}

// NextRow is the 1-based sheet row the next appended record lands on.
func (s *Snapshot) NextRow() int {
	return s.HeaderRows + len(s.Rows) + 1
}

var reHyperlink = regexp.MustCompile(`(?i)=HYPERLINK\("([^"]*)"\s*,\s*"([^"]*)"\)`)

// ParseSnapshot builds a Snapshot from raw cell values as returned by
// the backend. Title cells may be HYPERLINK formulas; the URL and the
// display text are split apart. Short rows are padded, blank rows kept
// so indices stay aligned with the sheet.
func ParseSnapshot(values [][]string, headerRows int) *Snapshot {
	snap := &Snapshot{HeaderRows: headerRows}
	if len(values) > headerRows {
		values = values[headerRows:]
	} else {
		values = nil
	}

	for i, raw := range values {
		row := TrackedRow{Index: i}
		cells := make([]string, columnCount)
		for j := 0; j < columnCount && j < len(raw); j++ {
			cells[j] = strings.TrimSpace(raw[j])
		}

		row.Date = parseDateCell(cells[ColDate])
		row.Company = cells[ColCompany]
		row.Title, row.URL = splitTitleCell(cells[ColTitle])
		row.Status = cells[ColStatus]
		row.Source = cells[ColSource]
		row.Contact = cells[ColContact]

		snap.Rows = append(snap.Rows, row)
	}
	return snap
}

// serialEpoch is day zero of spreadsheet serial dates (1899-12-30).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// parseDateCell accepts the date forms a fetched cell can carry: ISO,
// the sheet's slash format, or a raw serial number when the backend
// did not render dates as strings. Anything else is a zero date.
func parseDateCell(cell string) time.Time {
	if cell == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "1/2/2006"} {
		if t, err := time.Parse(layout, cell); err == nil {
			return t
		}
	}
	if n, err := strconv.ParseFloat(cell, 64); err == nil && n > 0 {
		return serialEpoch.AddDate(0, 0, int(n))
	}
	return time.Time{}
}

func splitTitleCell(cell string) (title, url string) {
	if m := reHyperlink.FindStringSubmatch(cell); m != nil {
		return m[2], m[1]
	}
	return cell, ""
}
