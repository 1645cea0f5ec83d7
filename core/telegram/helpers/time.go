package helpers

import (
	"strings"
	"time"
)

// ISODate is the layout dates are normalized to.
const ISODate = "2006-01-02"

var flexibleDateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
}

// ParseFlexibleDate tries several common date formats used in chat flows.
// It returns the parsed time in UTC and true on success.
func ParseFlexibleDate(input string) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range flexibleDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate parses input with ParseFlexibleDate and formats it as YYYY-MM-DD.
func NormalizeDate(input string) (string, bool) {
	t, ok := ParseFlexibleDate(input)
	if !ok {
		return "", false
	}
	return t.Format(ISODate), true
}
