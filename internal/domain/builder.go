package domain

import "time"

// Builder accumulates fields for a Record as the extraction pipeline
// discovers them. Required fields are checked once, in Build; a partial
// record never escapes.
type Builder struct {
	verb    Verb
	company string
	title   string
	url     string
	date    time.Time
	hasDate bool

	source  string
	contact string
}

func NewBuilder(source, contact string) *Builder {
	return &Builder{source: source, contact: contact}
}

func (b *Builder) Verb(v Verb) *Builder {
	if v != VerbUnknown {
		b.verb = v
	}
	return b
}

func (b *Builder) Company(name string) *Builder {
	if name != "" {
		b.company = name
	}
	return b
}

func (b *Builder) Title(name string) *Builder {
	if name != "" {
		b.title = name
	}
	return b
}

func (b *Builder) URL(u string) *Builder {
	if u != "" {
		b.url = u
	}
	return b
}

func (b *Builder) Date(d time.Time) *Builder {
	if !d.IsZero() {
		b.date = d
		b.hasDate = true
	}
	return b
}

// Build validates the accumulated fields and returns the finished
// Record. The short-name fields are left for the caller to fill from
// the shortener; everything else is final.
func (b *Builder) Build() (Record, error) {
	switch {
	case b.company == "":
		return Record{}, ErrMissingCompany
	case b.title == "":
		return Record{}, ErrMissingTitle
	case !b.hasDate:
		return Record{}, ErrMissingDate
	case b.url == "":
		return Record{}, ErrMissingURL
	}
	return Record{
		Date:    b.date,
		Company: b.company,
		Title:   b.title,
		URL:     b.url,
		Verb:    b.verb,
		Source:  b.source,
		Contact: b.contact,
	}, nil
}
