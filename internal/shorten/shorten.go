// Bounded, keyword-preserving name reduction for spreadsheet columns.
//
// A shortened name must fit the column width while still identifying
// the company or role. Reduction runs as an ordered pipeline of steps,
// each one re-checked against the length budget, so a name that already
// fits passes through untouched and the whole function is idempotent.
package shorten

import (
	"strings"

	"jobtrack-engine/internal/patterns"
)

type Shortener struct {
	lib *patterns.Library
}

func New(lib *patterns.Library) *Shortener {
	return &Shortener{lib: lib}
}

// Title shortens a job title to at most max bytes, preserving the role
// noun ("Engineer", "Developer", ...) when the title contains one.
func (s *Shortener) Title(name string, max int) string {
	keyword := s.lib.TitleKeyword.FindString(name)
	return s.shorten(name, max, keyword)
}

// Company shortens a company name to at most max bytes. Company names
// carry no required keyword: suffix stripping and abbreviation run
// first, then whole words drop off the end, then a hard cut.
func (s *Shortener) Company(name string, max int) string {
	name = collapse(name)
	if len(name) <= max {
		return name
	}

	name = s.stripNoiseSuffixes(name, max)
	name = s.applyAbbrevs(name, max, s.lib.CompanyAbbrevs)

	words := strings.Fields(name)
	for len(words) > 1 && len(strings.Join(words, " ")) > max {
		words = words[:len(words)-1]
	}
	name = strings.Join(words, " ")

	if len(name) > max {
		name = strings.TrimSpace(name[:max])
	}
	return name
}

// shorten applies the staged reduction with a required keyword that
// must survive every step. Deterministic and idempotent: re-shortening
// an already-short string returns it unchanged.
func (s *Shortener) shorten(name string, max int, keyword string) string {
	name = collapse(name)
	if len(name) <= max {
		return name
	}

	// 1. legal-entity and filler suffixes
	name = s.stripNoiseSuffixes(name, max)

	// 2. abbreviation tables (both sets apply to titles)
	name = s.applyAbbrevs(name, max, s.lib.CompanyAbbrevs)
	name = s.applyAbbrevs(name, max, s.lib.TitleAbbrevs)

	// 3. descriptive noise, but never the keyword itself
	for _, re := range s.lib.NoiseTerms {
		if len(name) <= max {
			break
		}
		cand := collapse(re.ReplaceAllString(name, " "))
		if cand == "" {
			continue
		}
		if keyword != "" && !strings.Contains(cand, keyword) {
			continue
		}
		name = cand
	}

	// 4. drop words from the end, never past the keyword
	if len(name) > max {
		words := strings.Fields(name)
		minKeep := 1
		if keyword != "" {
			for i, w := range words {
				if strings.Contains(w, keyword) {
					minKeep = i + 1
					break
				}
			}
		}
		for len(words) > minKeep && len(strings.Join(words, " ")) > max {
			words = words[:len(words)-1]
		}
		name = strings.Join(words, " ")
	}

	// 5. drop words from the front, never the keyword itself
	if len(name) > max {
		words := strings.Fields(name)
		for len(words) > 1 && len(strings.Join(words, " ")) > max {
			if keyword != "" && strings.Contains(words[0], keyword) {
				break
			}
			words = words[1:]
		}
		name = strings.Join(words, " ")
	}

	// 6. boundary cleanup, trailing plural/period
	if len(name) > max {
		name = s.normalize(name)
		for _, suffix := range []string{".", "s"} {
			trimmed := strings.TrimSuffix(name, suffix)
			if keyword == "" || strings.Contains(trimmed, keyword) {
				name = trimmed
			}
		}
	}

	// 7. hard cut at the last word boundary inside the budget
	if len(name) > max {
		if cut := strings.LastIndex(name[:max+1], " "); cut > 0 {
			name = name[:cut]
		} else {
			name = name[:max]
		}
		name = strings.TrimSpace(name)
	}

	return s.normalize(name)
}

func (s *Shortener) stripNoiseSuffixes(name string, max int) string {
	for _, junk := range s.lib.CompanyNoise {
		if len(name) <= max {
			break
		}
		name = collapse(strings.ReplaceAll(name, junk, " "))
	}
	return name
}

func (s *Shortener) applyAbbrevs(name string, max int, abbrevs []patterns.Abbrev) string {
	for _, ab := range abbrevs {
		if len(name) <= max {
			break
		}
		name = collapse(strings.ReplaceAll(name, ab.Long, ab.Short))
	}
	return name
}

func (s *Shortener) normalize(name string) string {
	name = s.lib.Slash.ReplaceAllString(name, "/")
	name = s.lib.EdgeStart.ReplaceAllString(name, "")
	name = s.lib.EdgeEnd.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
