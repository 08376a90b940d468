package extract

import (
	"net/url"
	"strings"

	"jobtrack-engine/internal/domain"
	"jobtrack-engine/internal/patterns"
)

// jobViewMarker identifies anchors that point at a job posting.
const jobViewMarker = "/jobs/view/"

// LinkFacts is what the anchor walk recovers: the canonical posting
// URL, the (possibly corrected) job title, and a status verb when the
// link target encodes one.
type LinkFacts struct {
	URL            string
	Title          string
	TitleConfirmed bool
	Verb           domain.Verb
}

// ResolveLinks walks anchors in document order and fills in URL, title
// and verb. The first job-view URL wins and is never overwritten.
//
// Title resolution: with no title yet, the first job anchor's text is
// taken verbatim. A subject-derived title often concatenates title and
// company; when a later anchor's text is a prefix of the known title,
// the title narrows to that text and is considered confirmed. As a
// fallback, anchor text containing the company name yields the text
// preceding it.
func ResolveLinks(lib *patterns.Library, body *Body, title, company, shortCompany string) (LinkFacts, error) {
	facts := LinkFacts{Title: title}

	body.EachAnchor(func(href, text string) bool {
		lh := strings.ToLower(href)
		if !strings.Contains(lh, jobViewMarker) {
			return true
		}

		if facts.URL == "" {
			facts.URL = stripQuery(href)
		}

		if facts.Verb == domain.VerbUnknown {
			switch {
			case strings.Contains(lh, "rejected"):
				facts.Verb = domain.VerbRejected
			case strings.Contains(lh, "viewed"):
				facts.Verb = domain.VerbViewed
			}
		}

		if text != "" {
			switch {
			case facts.Title == "":
				facts.Title = text
			case !facts.TitleConfirmed && text != facts.Title && strings.HasPrefix(facts.Title, text):
				facts.Title = text
				facts.TitleConfirmed = true
			case !facts.TitleConfirmed:
				if t := titleBeforeCompany(text, company, shortCompany); t != "" {
					facts.Title = t
					facts.TitleConfirmed = true
				}
			}
		}

		done := facts.URL != "" && facts.Title != "" && facts.TitleConfirmed &&
			facts.Verb != domain.VerbUnknown
		return !done
	})

	if facts.Title == "" {
		return facts, domain.ErrMissingTitle
	}
	return facts, nil
}

// titleBeforeCompany derives a title from anchor text of the
// "<title> <company>" shape.
func titleBeforeCompany(text, company, shortCompany string) string {
	for _, c := range []string{company, shortCompany} {
		if c == "" {
			continue
		}
		if i := strings.Index(text, c); i > 0 {
			return strings.TrimSpace(text[:i])
		}
	}
	return ""
}

// stripQuery drops tracking parameters and fragments, leaving the
// canonical posting URL.
func stripQuery(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		if i := strings.IndexAny(href, "?#"); i >= 0 {
			return href[:i]
		}
		return href
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
