// Turning one notification email into the typed fields of a job
// application record: subject grammar, body shredding, date and link
// resolution. Each resolver is pure over the parsed message; failures
// are fatal for that single email only.
package extract

import (
	"strings"

	"jobtrack-engine/internal/domain"
	"jobtrack-engine/internal/patterns"
)

// SubjectFields is the partial record parsed from a subject line.
// Groups absent from the match stay zero-valued rather than empty-set.
type SubjectFields struct {
	Verb    domain.Verb
	Title   string
	Company string
}

// ParseSubject applies the subject grammar. A subject with no company
// group cannot produce a usable record, so that case is an error.
func ParseSubject(lib *patterns.Library, subject string) (SubjectFields, error) {
	m := lib.Subject.FindStringSubmatch(subject)
	if m == nil {
		return SubjectFields{}, domain.ErrMissingCompany
	}

	var out SubjectFields
	for i, name := range lib.Subject.SubexpNames() {
		if i >= len(m) || m[i] == "" {
			continue
		}
		switch name {
		case "verb", "averb":
			out.Verb = domain.ParseVerb(strings.ToLower(m[i]))
		case "title":
			out.Title = strings.TrimSpace(m[i])
		case "company":
			out.Company = strings.TrimSpace(m[i])
		}
	}
	if out.Company == "" {
		return SubjectFields{}, domain.ErrMissingCompany
	}
	return out, nil
}

// IsIgnoredSubject reports whether the subject marks a digest/summary
// notification. Those are routed to the "ignored" disposition, never
// treated as a parse failure.
func IsIgnoredSubject(lib *patterns.Library, subject string) bool {
	ls := strings.ToLower(subject)
	for _, phrase := range lib.IgnoreSubjects {
		if strings.Contains(ls, phrase) {
			return true
		}
	}
	return false
}
