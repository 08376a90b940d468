package pass

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack-engine/internal/patterns"
	"jobtrack-engine/internal/sheet"
)

const sentHeader = "Fri, 10 Jan 2025 10:00:00 +0000 (UTC)"

const bodyApplied = `<html><body>
<p>Applied on January 5, 2025</p>
<p><a href="https://www.linkedin.com/jobs/view/12345/?refId=abc&trk=x">Senior Backend Engineer - Remote, 100% Remote, Urgently Hiring</a></p>
</body></html>`

const bodyRejected = `<html><body>
<p>Applied on January 5, 2025</p>
<p><a href="https://www.linkedin.com/jobs/view/12345/rejected/?trk=x">Senior Backend Engineer - Remote, 100% Remote, Urgently Hiring</a></p>
</body></html>`

type fakeBackend struct {
	appended    [][]any
	updated     []sheet.CellUpdate
	dropAppends int
}

func (f *fakeBackend) Fetch(context.Context) (*sheet.Snapshot, error) {
	return &sheet.Snapshot{}, nil
}

func (f *fakeBackend) Append(_ context.Context, rows [][]any) (int, error) {
	f.appended = append(f.appended, rows...)
	return len(rows) - f.dropAppends, nil
}

func (f *fakeBackend) UpdateStatus(_ context.Context, updates []sheet.CellUpdate) (int, error) {
	f.updated = append(f.updated, updates...)
	return len(updates), nil
}

func newRunner() *Runner {
	return NewRunner(patterns.Default(), "LinkedIn", "N/A", 24, 30)
}

func emptySnapshot() *sheet.Snapshot {
	return &sheet.Snapshot{HeaderRows: 1}
}

func trackedSnapshot(status string) *sheet.Snapshot {
	return &sheet.Snapshot{
		HeaderRows: 1,
		Rows: []sheet.TrackedRow{{
			Index:   0,
			Date:    time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			Company: "Acme Corp",
			Title:   "Sr Backend Engineer Hiring",
			URL:     "https://www.linkedin.com/jobs/view/12345/",
			Status:  status,
		}},
	}
}

func TestRunInsertsNewApplication(t *testing.T) {
	backend := &fakeBackend{}
	emails := []Email{{
		ID:       1,
		Subject:  "Your application was sent to Acme Corp",
		SentAt:   sentHeader,
		HTMLBody: bodyApplied,
	}}

	report, err := newRunner().Run(context.Background(), emails, emptySnapshot(), backend)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	assert.Zero(t, report.Updated+report.Ignored+report.Skipped)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, DispositionInsert, report.Outcomes[0].Disposition)
	assert.True(t, report.Outcomes[0].Disposition.Handled())

	require.Len(t, backend.appended, 1)
	row := backend.appended[0]
	assert.Equal(t, "2025-01-05", row[sheet.ColDate])
	assert.Equal(t, "Acme Corp", row[sheet.ColCompany])

	title, ok := row[sheet.ColTitle].(string)
	require.True(t, ok)
	assert.Contains(t, title, "https://www.linkedin.com/jobs/view/12345/")
	assert.NotContains(t, title, "?")
	assert.Contains(t, title, "Engineer")
	assert.NotContains(t, title, "Remote")
	assert.NotContains(t, title, "Urgently")
}

func TestRunRejectionUpdatesTrackedRow(t *testing.T) {
	backend := &fakeBackend{}
	emails := []Email{{
		ID:       2,
		Subject:  "Your application was viewed by Acme Corp",
		SentAt:   sentHeader,
		HTMLBody: bodyRejected,
	}}

	report, err := newRunner().Run(context.Background(), emails, trackedSnapshot("Active"), backend)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.Empty(t, backend.appended)
	// The link verb wins over the subject's "viewed".
	assert.Equal(t, []sheet.CellUpdate{{Row: 2, Status: sheet.StatusRejected}}, backend.updated)
}

func TestRunRejectedStatusIsTerminal(t *testing.T) {
	backend := &fakeBackend{}
	emails := []Email{{
		ID:       3,
		Subject:  "Your application was viewed by Acme Corp",
		SentAt:   sentHeader,
		HTMLBody: bodyRejected,
	}}

	report, err := newRunner().Run(context.Background(), emails, trackedSnapshot(sheet.StatusRejected), backend)
	require.NoError(t, err)

	// Handled, but no write: the row keeps its terminal status.
	assert.Equal(t, 1, report.Updated)
	assert.Empty(t, backend.updated)
	assert.True(t, report.Outcomes[0].Disposition.Handled())
}

func TestRunIgnoresDigestSubjects(t *testing.T) {
	backend := &fakeBackend{}
	emails := []Email{{
		ID:      4,
		Subject: "Your job alert for Software Engineer",
		SentAt:  sentHeader,
	}}

	report, err := newRunner().Run(context.Background(), emails, emptySnapshot(), backend)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Ignored)
	assert.Empty(t, backend.appended)
	assert.Empty(t, backend.updated)
	assert.True(t, report.Outcomes[0].Disposition.Handled())
}

func TestRunSkipsUnparseableEmail(t *testing.T) {
	backend := &fakeBackend{}
	emails := []Email{{
		ID:       5,
		Subject:  "Welcome to LinkedIn",
		SentAt:   sentHeader,
		HTMLBody: "<html><body><p>hello</p></body></html>",
	}}

	report, err := newRunner().Run(context.Background(), emails, emptySnapshot(), backend)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, DispositionSkipped, report.Outcomes[0].Disposition)
	assert.Error(t, report.Outcomes[0].Err)
	assert.False(t, report.Outcomes[0].Disposition.Handled())
}

func TestRunSkipsWhenNoMatchFound(t *testing.T) {
	backend := &fakeBackend{}
	emails := []Email{{
		ID:       6,
		Subject:  "Your application was viewed by Acme Corp",
		SentAt:   sentHeader,
		HTMLBody: bodyRejected,
	}}

	report, err := newRunner().Run(context.Background(), emails, emptySnapshot(), backend)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, backend.updated)
}

func TestRunFlushMismatchDemotesBatchToSkipped(t *testing.T) {
	backend := &fakeBackend{dropAppends: 1}
	emails := []Email{
		{
			ID:       7,
			Subject:  "Your application was sent to Acme Corp",
			SentAt:   sentHeader,
			HTMLBody: bodyApplied,
		},
		{
			ID:      8,
			Subject: "Your job alert for Software Engineer",
			SentAt:  sentHeader,
		},
	}

	report, err := newRunner().Run(context.Background(), emails, emptySnapshot(), backend)
	require.Error(t, err)
	assert.ErrorIs(t, err, sheet.ErrFlushMismatch)

	// The batched email is demoted; the ignored one is unaffected.
	assert.Equal(t, DispositionSkipped, report.Outcomes[0].Disposition)
	assert.ErrorIs(t, report.Outcomes[0].Err, sheet.ErrFlushMismatch)
	assert.Equal(t, DispositionIgnored, report.Outcomes[1].Disposition)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Ignored)
	assert.Zero(t, report.Inserted)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	backend := &fakeBackend{}
	emails := []Email{{
		ID:       9,
		Subject:  "Your application was sent to Acme Corp",
		SentAt:   sentHeader,
		HTMLBody: bodyApplied,
	}}

	runner := newRunner()
	runner.DryRun = true

	report, err := runner.Run(context.Background(), emails, emptySnapshot(), backend)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	assert.Empty(t, backend.appended)
	assert.Empty(t, backend.updated)
}

// Two notifications for the same new application both insert: matching
// runs against the pre-pass snapshot, not rows added mid-pass.
func TestRunSnapshotIsolationWithinPass(t *testing.T) {
	backend := &fakeBackend{}
	email := Email{
		Subject:  "Your application was sent to Acme Corp",
		SentAt:   sentHeader,
		HTMLBody: bodyApplied,
	}
	a, b := email, email
	a.ID, b.ID = 10, 11

	report, err := newRunner().Run(context.Background(), []Email{a, b}, emptySnapshot(), backend)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Inserted)
	require.Len(t, backend.appended, 2)
}
