package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack-engine/internal/domain"
	"jobtrack-engine/internal/patterns"
)

var sentAt = time.Date(2025, time.January, 10, 15, 4, 5, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDateExplicit(t *testing.T) {
	lib := patterns.Default()

	got, err := ResolveDate(lib, []string{"some preamble", "Applied on January 5, 2025"}, sentAt)
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.January, 5), got)
}

func TestResolveDateRelative(t *testing.T) {
	lib := patterns.Default()

	got, err := ResolveDate(lib, []string{"Applied 3 days ago"}, sentAt)
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.January, 7), got)

	got, err = ResolveDate(lib, []string{"Applied 2 weeks ago"}, sentAt)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.December, 27), got)
}

func TestResolveDateMissingYearUsesSendYear(t *testing.T) {
	lib := patterns.Default()

	got, err := ResolveDate(lib, []string{"Applied on Jan 5"}, sentAt)
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.January, 5), got)

	// Abbreviated month with a period and no year.
	got, err = ResolveDate(lib, []string{"Applied on Jan. 5"}, sentAt)
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.January, 5), got)
}

func TestResolveDateFutureClampedToSendDate(t *testing.T) {
	lib := patterns.Default()

	got, err := ResolveDate(lib, []string{"Applied on January 20, 2025"}, sentAt)
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.January, 10), got)
}

func TestResolveDateFirstFragmentWins(t *testing.T) {
	lib := patterns.Default()

	got, err := ResolveDate(lib, []string{"Applied on January 5, 2025", "viewed 2 days ago"}, sentAt)
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.January, 5), got)
}

func TestResolveDateNoneFound(t *testing.T) {
	lib := patterns.Default()

	_, err := ResolveDate(lib, []string{"no dates here", "still nothing"}, sentAt)
	assert.ErrorIs(t, err, domain.ErrMissingDate)
}

func TestParseSendTime(t *testing.T) {
	got, err := ParseSendTime("Fri, 10 Jan 2025 15:04:05 +0000 (UTC)")
	require.NoError(t, err)
	assert.Equal(t, sentAt, got.UTC())

	// Plain RFC 5322 without the trailing zone name also parses.
	got, err = ParseSendTime("Fri, 10 Jan 2025 10:04:05 -0500")
	require.NoError(t, err)
	assert.Equal(t, sentAt, got.UTC())
}

func TestParseSendTimeInvalid(t *testing.T) {
	_, err := ParseSendTime("not a timestamp")
	assert.Error(t, err)
}
