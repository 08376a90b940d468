package pass

import (
	"fmt"
	"time"
)

// Disposition is the terminal outcome for one email.
type Disposition string

const (
	// DispositionInsert appended a new application row.
	DispositionInsert Disposition = "insert"
	// DispositionUpdate changed (or terminally preserved) a row's status.
	DispositionUpdate Disposition = "update"
	// DispositionIgnored recognized a digest/summary email and dropped it.
	DispositionIgnored Disposition = "ignored"
	// DispositionSkipped could not process the email; it stays unread.
	DispositionSkipped Disposition = "skipped"
)

// Handled reports whether the email was consumed and should be marked
// read. Skipped emails stay unread for the next pass or manual review.
func (d Disposition) Handled() bool {
	return d == DispositionInsert || d == DispositionUpdate || d == DispositionIgnored
}

// Outcome is one email's result within a pass.
type Outcome struct {
	EmailID     uint32
	Subject     string
	Disposition Disposition
	Err         error

	// queued marks outcomes whose write rides on the batch flush.
	queued bool
}

// Report summarizes a finished pass.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome

	Inserted int
	Updated  int
	Ignored  int
	Skipped  int
}

func (r *Report) tally() {
	r.Inserted, r.Updated, r.Ignored, r.Skipped = 0, 0, 0, 0
	for _, o := range r.Outcomes {
		switch o.Disposition {
		case DispositionInsert:
			r.Inserted++
		case DispositionUpdate:
			r.Updated++
		case DispositionIgnored:
			r.Ignored++
		case DispositionSkipped:
			r.Skipped++
		}
	}
}

func (r *Report) String() string {
	return fmt.Sprintf("%d inserted, %d updated, %d ignored, %d skipped (%.1fs)",
		r.Inserted, r.Updated, r.Ignored, r.Skipped,
		r.FinishedAt.Sub(r.StartedAt).Seconds())
}
