// One reconciliation pass: take the candidate emails and the tracked
// table snapshot, extract a record from each email, route it to an
// insert or a status update, and apply everything in one batched flush.
package pass

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jobtrack-engine/internal/domain"
	"jobtrack-engine/internal/extract"
	"jobtrack-engine/internal/match"
	"jobtrack-engine/internal/patterns"
	"jobtrack-engine/internal/sheet"
	"jobtrack-engine/internal/shorten"
)

// Email is one candidate message as the mail transport hands it over.
type Email struct {
	ID       uint32
	Subject  string
	SentAt   string // raw Date header text
	HTMLBody string
}

var errUnknownVerb = errors.New("no recognizable status verb in message")

// Runner holds the per-pass collaborators and the tracker settings that
// shape every produced record.
type Runner struct {
	lib   *patterns.Library
	short *shorten.Shortener

	Source        string
	Contact       string
	MaxCompanyLen int
	MaxTitleLen   int
	DryRun        bool
}

func NewRunner(lib *patterns.Library, source, contact string, maxCompany, maxTitle int) *Runner {
	return &Runner{
		lib:           lib,
		short:         shorten.New(lib),
		Source:        source,
		Contact:       contact,
		MaxCompanyLen: maxCompany,
		MaxTitleLen:   maxTitle,
	}
}

// Run processes the emails against the snapshot and flushes the
// resulting batch. All matching happens against the snapshot taken
// before the pass; rows inserted mid-pass are invisible to it, so two
// emails about the same new application both insert. Per-email failures
// become skipped outcomes and never abort the pass; only a flush
// failure is returned as an error, with every batched email demoted to
// skipped.
func (r *Runner) Run(ctx context.Context, emails []Email, snap *sheet.Snapshot, backend sheet.Backend) (*Report, error) {
	report := &Report{StartedAt: time.Now()}
	defer func() {
		report.FinishedAt = time.Now()
		report.tally()
	}()

	batcher := sheet.NewBatcher(snap.NextRow())

	// Outcome indexes whose write is riding on the flush.
	var batched []int

	for i := range emails {
		e := &emails[i]
		out := r.processOne(e, snap, batcher)
		report.Outcomes = append(report.Outcomes, out)

		if out.queued {
			batched = append(batched, len(report.Outcomes)-1)
		}
		if out.Err != nil {
			log.Printf("[pass] uid=%d %s: %v", e.ID, out.Disposition, out.Err)
		} else {
			log.Printf("[pass] uid=%d %s: %q", e.ID, out.Disposition, e.Subject)
		}
	}

	if r.DryRun {
		log.Printf("[pass] dry-run: %d inserts and %d status updates not applied",
			batcher.PendingInserts(), batcher.PendingUpdates())
		return report, nil
	}

	wantInserts := batcher.PendingInserts()
	wantUpdates := batcher.PendingUpdates()
	if wantInserts == 0 && wantUpdates == 0 {
		return report, nil
	}

	res, err := batcher.Flush(ctx, backend)
	if err == nil && (res.RowsInserted != wantInserts || res.CellsUpdated != wantUpdates) {
		err = fmt.Errorf("queued %d/%d, applied %d/%d: %w",
			wantInserts, wantUpdates, res.RowsInserted, res.CellsUpdated, sheet.ErrFlushMismatch)
	}
	if err != nil {
		// The flush is all-or-nothing from the engine's point of view:
		// with unconfirmed writes, every batched email stays unread for
		// the next pass.
		for _, idx := range batched {
			report.Outcomes[idx].Disposition = DispositionSkipped
			report.Outcomes[idx].Err = err
		}
		return report, fmt.Errorf("flush batch: %w", err)
	}

	return report, nil
}

// processOne runs the extraction pipeline on a single email and queues
// its write. Any failure maps to the skipped disposition with the cause
// attached.
func (r *Runner) processOne(e *Email, snap *sheet.Snapshot, batcher *sheet.Batcher) Outcome {
	out := Outcome{EmailID: e.ID, Subject: e.Subject}

	if extract.IsIgnoredSubject(r.lib, e.Subject) {
		out.Disposition = DispositionIgnored
		return out
	}

	skip := func(err error) Outcome {
		out.Disposition = DispositionSkipped
		out.Err = err
		return out
	}

	subj, err := extract.ParseSubject(r.lib, e.Subject)
	if err != nil {
		return skip(err)
	}

	sentAt, err := extract.ParseSendTime(e.SentAt)
	if err != nil {
		return skip(fmt.Errorf("parse send time %q: %w", e.SentAt, err))
	}

	body, err := extract.ParseBody(e.HTMLBody)
	if err != nil {
		return skip(err)
	}

	date, err := extract.ResolveDate(r.lib, body.Fragments(), sentAt)
	if err != nil {
		return skip(err)
	}

	shortCompany := r.short.Company(subj.Company, r.MaxCompanyLen)

	facts, err := extract.ResolveLinks(r.lib, body, subj.Title, subj.Company, shortCompany)
	if err != nil {
		return skip(err)
	}

	// The link verb is more specific than the subject verb and wins
	// when both are present.
	rec, err := domain.NewBuilder(r.Source, r.Contact).
		Verb(subj.Verb).
		Verb(facts.Verb).
		Company(subj.Company).
		Title(facts.Title).
		URL(facts.URL).
		Date(date).
		Build()
	if err != nil {
		return skip(err)
	}
	rec.ShortCompany = shortCompany
	rec.ShortTitle = r.short.Title(rec.Title, r.MaxTitleLen)

	switch {
	case rec.Verb == domain.VerbUnknown:
		return skip(errUnknownVerb)

	case rec.Verb.IsNewApplication():
		batcher.QueueInsert(rec)
		out.Disposition = DispositionInsert
		out.queued = true
		return out

	default:
		idx, err := match.FindRow(rec, snap)
		if err != nil {
			return skip(fmt.Errorf("match %q at %q: %w", rec.Title, rec.Company, err))
		}
		row := snap.Rows[idx]
		if row.Status == sheet.StatusRejected {
			// Rejected is terminal; the email is still handled.
			out.Disposition = DispositionUpdate
			return out
		}
		batcher.QueueStatus(snap.SheetRow(idx), rec.Verb.StatusText())
		out.Disposition = DispositionUpdate
		out.queued = true
		return out
	}
}
