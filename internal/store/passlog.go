package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EmailRecord is the per-email outcome kept across runs.
type EmailRecord struct {
	UID         uint32
	Subject     string
	Disposition string
	Error       string
	ProcessedAt time.Time
}

// PassRecord summarizes one reconciliation pass.
type PassRecord struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Inserted   int
	Updated    int
	Ignored    int
	Skipped    int
	Error      string
}

// RecordEmail upserts the outcome for one email.
func (d *DB) RecordEmail(ctx context.Context, r EmailRecord) error {
	if r.ProcessedAt.IsZero() {
		r.ProcessedAt = time.Now().UTC()
	}
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO processed_emails (uid, subject, disposition, error, processed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(uid) DO UPDATE SET
  subject = excluded.subject,
  disposition = excluded.disposition,
  error = excluded.error,
  processed_at = excluded.processed_at;
`, r.UID, r.Subject, r.Disposition, r.Error, r.ProcessedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record email uid=%d: %w", r.UID, err)
	}
	return nil
}

// SeenEmail reports whether a uid already has a recorded outcome.
func (d *DB) SeenEmail(ctx context.Context, uid uint32) (bool, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM processed_emails WHERE uid = ?;`, uid).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HandledEmail reports whether a uid was already consumed (inserted,
// updated or ignored). Skipped outcomes return false so the email is
// retried on the next pass.
func (d *DB) HandledEmail(ctx context.Context, uid uint32) (bool, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `
SELECT COUNT(1) FROM processed_emails
WHERE uid = ? AND disposition IN ('insert', 'update', 'ignored');
`, uid).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordPass appends one pass-summary row.
func (d *DB) RecordPass(ctx context.Context, p PassRecord) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO passes (started_at, finished_at, inserted, updated, ignored, skipped, error)
VALUES (?, ?, ?, ?, ?, ?, ?);
`, p.StartedAt.UTC().Format(time.RFC3339), p.FinishedAt.UTC().Format(time.RFC3339),
		p.Inserted, p.Updated, p.Ignored, p.Skipped, p.Error)
	if err != nil {
		return fmt.Errorf("record pass: %w", err)
	}
	return nil
}

// LastPass returns the most recent pass summary, or nil when none exist.
func (d *DB) LastPass(ctx context.Context) (*PassRecord, error) {
	var (
		p        PassRecord
		started  string
		finished string
	)
	err := d.Pool.QueryRowContext(ctx, `
SELECT started_at, finished_at, inserted, updated, ignored, skipped, error
FROM passes ORDER BY id DESC LIMIT 1;
`).Scan(&started, &finished, &p.Inserted, &p.Updated, &p.Ignored, &p.Skipped, &p.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.StartedAt, _ = time.Parse(time.RFC3339, started)
	p.FinishedAt, _ = time.Parse(time.RFC3339, finished)
	return &p, nil
}
