package extract

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"jobtrack-engine/internal/domain"
	"jobtrack-engine/internal/patterns"
)

// placeholderYear marks a parsed date whose source text carried no
// year. The resolver rewrites it to the message's send year.
const placeholderYear = 1900

// Calendar-date layouts tried against an explicit date substring, most
// specific first. The no-year layouts land on placeholderYear.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"2006-01-02",
	"1/2/2006",
	"1/2/06",
	"January 2",
	"Jan 2",
	"Jan. 2",
}

// sendTimeLayout is the fixed header format candidate emails carry:
// "Weekday, DD Mon YYYY HH:MM:SS ±ZZZZ (ZoneName)".
const sendTimeLayout = "Mon, 02 Jan 2006 15:04:05 -0700 (MST)"

// ParseSendTime parses a message's send timestamp header.
func ParseSendTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(sendTimeLayout, s); err == nil {
		return t, nil
	}
	return mail.ParseDate(s)
}

// ResolveDate scans fragments in order for an application date, either
// an explicit calendar date or a relative "N days ago" offset. The
// first fragment that parses wins; scanning stops there. The resolved
// date is corrected against the send timestamp: a placeholder year is
// replaced by the send year, and a date after the send date is clamped
// to it.
func ResolveDate(lib *patterns.Library, fragments []string, sentAt time.Time) (time.Time, error) {
	for _, frag := range fragments {
		if d, ok := explicitDate(lib, frag); ok {
			return correct(d, sentAt), nil
		}
		if d, ok := relativeDate(lib, frag, sentAt); ok {
			return correct(d, sentAt), nil
		}
	}
	return time.Time{}, domain.ErrMissingDate
}

func explicitDate(lib *patterns.Library, frag string) (time.Time, bool) {
	m := lib.ExplicitDate.FindString(frag)
	if m == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, m)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			// no-year layout: mark for send-year rewrite
			t = time.Date(placeholderYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return t, true
	}
	return time.Time{}, false
}

func relativeDate(lib *patterns.Library, frag string, sentAt time.Time) (time.Time, bool) {
	m := lib.RelativeDate.FindStringSubmatch(frag)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch strings.ToLower(m[2]) {
	case "hour":
		return sentAt.Add(-time.Duration(n) * time.Hour), true
	case "day":
		return sentAt.AddDate(0, 0, -n), true
	case "week":
		return sentAt.AddDate(0, 0, -7*n), true
	case "month":
		return sentAt.AddDate(0, -n, 0), true
	}
	return time.Time{}, false
}

func correct(d, sentAt time.Time) time.Time {
	if d.Year() == placeholderYear {
		d = time.Date(sentAt.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	sentDay := time.Date(sentAt.Year(), sentAt.Month(), sentAt.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(sentDay) {
		return sentDay
	}
	return day
}
