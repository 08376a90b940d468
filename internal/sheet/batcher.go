package sheet

import (
	"context"
	"errors"
	"fmt"

	"jobtrack-engine/internal/domain"
)

// statusFormula computes Stale/Active/Not Yet from the date cell on
// the same row.
const statusFormula = `=if(isdate(A%d),if(today()-A%d>30,"Stale","Active"),"Not Yet")`

// ErrFlushMismatch signals that the backend reported fewer (or more)
// applied writes than were queued. The whole batch is then treated as
// unconfirmed.
var ErrFlushMismatch = errors.New("backend applied a different number of writes than were queued")

// CellUpdate is one pending status mutation: a 1-based sheet row and
// the new status text. Only the status column is ever updated.
type CellUpdate struct {
	Row    int
	Status string
}

// FlushResult reports how many writes the backend confirmed.
type FlushResult struct {
	RowsInserted int
	CellsUpdated int
}

// Backend is the transport boundary to the tracked table. The engine
// core only ever sees this interface.
type Backend interface {
	// Fetch reads the full tracked table.
	Fetch(ctx context.Context) (*Snapshot, error)
	// Append adds rows after the last data row and reports how many
	// were written.
	Append(ctx context.Context, rows [][]any) (int, error)
	// UpdateStatus writes the queued status cells and reports how many
	// cells were written.
	UpdateStatus(ctx context.Context, updates []CellUpdate) (int, error)
}

// Batcher accumulates a pass's inserts and status updates and applies
// them in a single flush of at most two backend writes.
type Batcher struct {
	nextRow int
	inserts [][]any
	updates []CellUpdate
}

// NewBatcher starts an empty batch. nextRow is the 1-based sheet row
// the first inserted record will land on; the status formula of each
// queued row references its own final position.
func NewBatcher(nextRow int) *Batcher {
	return &Batcher{nextRow: nextRow}
}

// QueueInsert appends a new-application row in sheet column order:
// date, company, title hyperlink, status formula, source, contact.
func (b *Batcher) QueueInsert(rec domain.Record) {
	row := b.nextRow + len(b.inserts)
	b.inserts = append(b.inserts, []any{
		rec.Date.Format("2006-01-02"),
		rec.ShortCompany,
		fmt.Sprintf(`=HYPERLINK(%q,%q)`, rec.URL, rec.ShortTitle),
		fmt.Sprintf(statusFormula, row, row),
		rec.Source,
		rec.Contact,
	})
}

// QueueStatus records a status overwrite for an existing sheet row.
func (b *Batcher) QueueStatus(sheetRow int, status string) {
	b.updates = append(b.updates, CellUpdate{Row: sheetRow, Status: status})
}

func (b *Batcher) PendingInserts() int { return len(b.inserts) }
func (b *Batcher) PendingUpdates() int { return len(b.updates) }

// Flush applies the batch: one bulk insert, one bulk update, in that
// order, skipping empty queues. The caller reconciles the returned
// counts against the pending counts and treats any difference as a
// batch-wide failure.
func (b *Batcher) Flush(ctx context.Context, backend Backend) (FlushResult, error) {
	var res FlushResult

	if len(b.inserts) > 0 {
		n, err := backend.Append(ctx, b.inserts)
		if err != nil {
			return res, fmt.Errorf("append rows: %w", err)
		}
		res.RowsInserted = n
	}

	if len(b.updates) > 0 {
		n, err := backend.UpdateStatus(ctx, b.updates)
		if err != nil {
			return res, fmt.Errorf("update status cells: %w", err)
		}
		res.CellsUpdated = n
	}

	return res, nil
}
