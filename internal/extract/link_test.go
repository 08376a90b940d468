package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack-engine/internal/domain"
	"jobtrack-engine/internal/patterns"
)

func mustBody(t *testing.T, html string) *Body {
	t.Helper()
	body, err := ParseBody(html)
	require.NoError(t, err)
	return body
}

func TestResolveLinksFirstURLWinsAndQueryStripped(t *testing.T) {
	lib := patterns.Default()
	body := mustBody(t, `<html><body>
		<a href="https://www.linkedin.com/jobs/view/12345/?refId=abc&trk=xyz">Data Engineer</a>
		<a href="https://www.linkedin.com/jobs/view/99999/?trk=later">Data Engineer</a>
	</body></html>`)

	facts, err := ResolveLinks(lib, body, "", "Initech", "Initech")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/12345/", facts.URL)
	assert.NotContains(t, facts.URL, "?")
	assert.Equal(t, "Data Engineer", facts.Title)
}

func TestResolveLinksIgnoresNonJobAnchors(t *testing.T) {
	lib := patterns.Default()
	body := mustBody(t, `<html><body>
		<a href="https://www.linkedin.com/unsubscribe">Unsubscribe</a>
		<a href="https://www.linkedin.com/jobs/view/42">Data Engineer</a>
	</body></html>`)

	facts, err := ResolveLinks(lib, body, "", "Initech", "Initech")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/42", facts.URL)
	assert.Equal(t, "Data Engineer", facts.Title)
}

func TestResolveLinksNarrowsConcatenatedTitle(t *testing.T) {
	lib := patterns.Default()
	body := mustBody(t, `<html><body>
		<a href="https://www.linkedin.com/jobs/view/1">Data Engineer Initech</a>
		<a href="https://www.linkedin.com/jobs/view/1">Data Engineer</a>
	</body></html>`)

	// Subject-derived title concatenates title and company; the later
	// anchor isolates the title.
	facts, err := ResolveLinks(lib, body, "Data Engineer Initech", "Initech", "Initech")
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", facts.Title)
	assert.True(t, facts.TitleConfirmed)
}

func TestResolveLinksTitleBeforeCompany(t *testing.T) {
	lib := patterns.Default()
	body := mustBody(t, `<html><body>
		<a href="https://www.linkedin.com/jobs/view/1">Data Engineer Initech</a>
	</body></html>`)

	facts, err := ResolveLinks(lib, body, "Something Unrelated", "Initech", "Initech")
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", facts.Title)
	assert.True(t, facts.TitleConfirmed)
}

func TestResolveLinksVerbFromURL(t *testing.T) {
	lib := patterns.Default()

	body := mustBody(t, `<html><body>
		<a href="https://www.linkedin.com/jobs/view/1/rejected/?trk=x">Data Engineer</a>
	</body></html>`)
	facts, err := ResolveLinks(lib, body, "", "Initech", "Initech")
	require.NoError(t, err)
	assert.Equal(t, domain.VerbRejected, facts.Verb)

	body = mustBody(t, `<html><body>
		<a href="https://www.linkedin.com/jobs/view/1/viewed/">Data Engineer</a>
	</body></html>`)
	facts, err = ResolveLinks(lib, body, "", "Initech", "Initech")
	require.NoError(t, err)
	assert.Equal(t, domain.VerbViewed, facts.Verb)
}

func TestResolveLinksNoTitle(t *testing.T) {
	lib := patterns.Default()
	body := mustBody(t, `<html><body><p>nothing to see</p></body></html>`)

	_, err := ResolveLinks(lib, body, "", "Initech", "Initech")
	assert.ErrorIs(t, err, domain.ErrMissingTitle)
}
