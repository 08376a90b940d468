package domain

import (
	"errors"
	"time"
)

// Verb is the application-lifecycle signal parsed from a notification
// email (subject line or link target).
type Verb int

const (
	VerbUnknown Verb = iota
	VerbApplied
	VerbSent
	VerbViewed
	VerbRejected
)

func (v Verb) String() string {
	switch v {
	case VerbApplied:
		return "applied"
	case VerbSent:
		return "sent"
	case VerbViewed:
		return "viewed"
	case VerbRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ParseVerb maps a status word to its Verb. Unrecognized words map to
// VerbUnknown; callers treat that as a soft failure, not a default.
func ParseVerb(s string) Verb {
	switch s {
	case "applied":
		return VerbApplied
	case "sent":
		return VerbSent
	case "viewed":
		return VerbViewed
	case "rejected":
		return VerbRejected
	default:
		return VerbUnknown
	}
}

// IsNewApplication reports whether the verb means "a fresh application
// was submitted" (insert) rather than a status change on an existing one.
func (v Verb) IsNewApplication() bool {
	return v == VerbApplied || v == VerbSent
}

// StatusText is the spreadsheet status-cell value for a status-change verb.
func (v Verb) StatusText() string {
	switch v {
	case VerbViewed:
		return "Viewed"
	case VerbRejected:
		return "Rejected"
	default:
		return ""
	}
}

// Validation errors raised when a record cannot be completed from one
// email. Each one is fatal for that single email only.
var (
	ErrMissingCompany = errors.New("no company found in message")
	ErrMissingTitle   = errors.New("no job title found in message")
	ErrMissingDate    = errors.New("no application date found in message")
	ErrMissingURL     = errors.New("no job posting URL found in message")
)

// Record is one job application as extracted from exactly one email.
// It is built once, used to produce a single insert or update, and
// discarded; nothing mutates it afterward.
type Record struct {
	Date         time.Time
	Company      string
	ShortCompany string
	Title        string
	ShortTitle   string
	URL          string
	Verb         Verb
	Source       string
	Contact      string
}
