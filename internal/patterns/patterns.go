// Compiled pattern set shared by the extractors and the name shortener.
// Everything here is fixed data: the Library is built once and never
// mutated, so it is safe to hand the same instance to every component.
package patterns

import (
	"regexp"
	"sync"
)

// Abbrev is an ordered long-form -> short-form replacement pair.
type Abbrev struct {
	Long  string
	Short string
}

type Library struct {
	// Subject matches the notification subject lines LinkedIn sends per
	// application event. Named groups: verb, averb, title, company.
	// "averb" catches the "You applied to ..." form; Go regexps cannot
	// reuse a group name across alternatives.
	Subject *regexp.Regexp

	// IgnoreSubjects are lowercase substrings marking digest/summary
	// notifications that describe no single application.
	IgnoreSubjects []string

	// ExplicitDate finds a calendar-date substring inside a body fragment.
	ExplicitDate *regexp.Regexp

	// RelativeDate finds "N <unit>s ago" phrases. Groups: amount, unit.
	RelativeDate *regexp.Regexp

	// TitleKeyword finds the role noun that a shortened job title must
	// keep ("Engineer", "Developer", "Analyst", ...).
	TitleKeyword *regexp.Regexp

	// NoiseTerms are removable descriptive phrases in job titles
	// (visa status, urgency, remote/100%, job-type boilerplate).
	NoiseTerms []*regexp.Regexp

	// CompanyNoise are literal low-information suffixes stripped from
	// company names and titles alike.
	CompanyNoise []string

	CompanyAbbrevs []Abbrev
	TitleAbbrevs   []Abbrev

	// Edge/slash normalization for shortened names.
	EdgeStart *regexp.Regexp
	EdgeEnd   *regexp.Regexp
	Slash     *regexp.Regexp
}

var (
	once sync.Once
	lib  *Library
)

// Default returns the shared Library, compiling it on first use.
func Default() *Library {
	once.Do(func() { lib = build() })
	return lib
}

func build() *Library {
	const (
		special = `[^\s\w]*`  // leading punctuation, if any
		sep     = `(?:\W)*`   // whitespace/punctuation run, if any
		fnWords = `(?:\s(?:of|or)\s)*`
	)

	noiseTerms := []string{
		`W2|Only|No|H1b`,                           // visa status
		`(?:Immediate|Urgen|Requir|Need)[a-z]*` + fnWords, // urgency
		`100%|Remote`,                              // location
		`Only|(?:[a-z]{4}\sTime)`,                  // full/part time
		`Opening|Opportunity|Job|Position`,         // the fact that it's a job
		`(?:Contract)+[a-z\s]*`,                    // contract-to-hire etc.
	}
	compiled := make([]*regexp.Regexp, 0, len(noiseTerms))
	for _, term := range noiseTerms {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+special+sep+`(?:`+term+`)+`))
	}

	return &Library{
		Subject: regexp.MustCompile(
			`(?i)^\s*(?:your application (?:was |to )?(?P<verb>sent|viewed|rejected|applied)(?:\s+(?:to|by))?|you\s+(?P<averb>applied)\s+to)\s+(?:(?P<title>.+?)\s+at\s+)?(?P<company>.+?)[.!]*\s*$`),
		IgnoreSubjects: []string{
			"job alert",
			"jobs you may be interested in",
			"search appearance",
			"your application was viewed and", // "...and N other updates" digests
			"weekly summary",
			"top applicant",
		},
		ExplicitDate: regexp.MustCompile(
			`(?i)\b((?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?\s+\d{1,2}(?:,\s*\d{4})?|\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})\b`),
		RelativeDate: regexp.MustCompile(`(?i)\b(\d+)\s+(hour|day|week|month)s?\s+ago\b`),
		TitleKeyword: regexp.MustCompile(`((?:Dev|Eng|Analy|Scientist|Consultant|Architect|Programmer)[a-z]*)`),
		NoiseTerms:   compiled,
		CompanyNoise: []string{", Inc.", "Inc", "L.L.C", "LLC", "The"},
		CompanyAbbrevs: []Abbrev{
			{"Technology", "Tech"},
			{"Solution", "Soln"},
		},
		TitleAbbrevs: []Abbrev{
			{"Senior", "Sr"},
		},
		EdgeStart: regexp.MustCompile(`^[^\w(]+`),
		EdgeEnd:   regexp.MustCompile(`[^\w)]+$`),
		Slash:     regexp.MustCompile(`\s*/\s*`),
	}
}
