package engine

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// fallbackLayouts cover forms dateparse does not read, mostly unpadded
// 年月日 dates and long weekday or month names.
var fallbackLayouts = []string{
	"2006年1月2日", "2006年1月2日 15:04", "2006年1月2日 15:04:05", "2006年1月2日 15時04分",
	"2006-1-2", "2006-1-2T15:04", "2006-1-2T15:04:05", "2006-1-2 15:04",
	"1/2/2006 3:04 PM", "Jan 2, 2006 15:04", "January 2, 2006", "2 January 2006",
	"Monday, January 2, 2006", "Mon, Jan 2, 2006", "02-Jan-2006", "2-Jan-2006",
}

// parseDate leniently parses one cell, reading slash dates month first. It
// reports false for blank and unrecognized values.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := dateparse.ParseIn(s, time.Local, dateparse.PreferMonthFirst(true)); err == nil {
		return t, true
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
