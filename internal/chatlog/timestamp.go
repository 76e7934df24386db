package chatlog

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-listings-must-flow/internal/textnorm"
)

var timestampPattern = regexp.MustCompile(
	`^(\d{1,2})/(\d{1,2})/(\d{2,4}),?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp]\.?\s?[Mm]\.?|ص|م)?$`,
)

// ParseTimestamp interprets an export timestamp such as "1/1/24, 10:30 AM".
// Dates are read day first and fall back to month first when that is the
// only valid reading. Two-digit years are in the 2000s. The result is in
// loc, or UTC when loc is nil. ok is false when the text is not a valid
// timestamp; callers keep the raw string in that case.
func ParseTimestamp(ts string, loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.UTC
	}
	m := timestampPattern.FindStringSubmatch(strings.TrimSpace(textnorm.FoldDigits(textnorm.StripInvisible(ts))))
	if m == nil {
		return time.Time{}, false
	}

	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	sec := 0
	if m[6] != "" {
		sec, _ = strconv.Atoi(m[6])
	}

	if len(m[3]) == 2 {
		year += 2000
	} else if len(m[3]) == 3 {
		return time.Time{}, false
	}

	if hour, ok = applyMeridiem(hour, m[7]); !ok {
		return time.Time{}, false
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}

	if t, ok := buildDate(year, second, first, hour, minute, sec, loc); ok {
		return t, true
	}
	return buildDate(year, first, second, hour, minute, sec, loc)
}

func applyMeridiem(hour int, meridiem string) (int, bool) {
	if meridiem == "" {
		return hour, true
	}
	if hour < 1 || hour > 12 {
		return 0, false
	}
	pm := meridiem == "م" || strings.HasPrefix(strings.ToLower(meridiem), "p")
	switch {
	case pm && hour != 12:
		return hour + 12, true
	case !pm && hour == 12:
		return 0, true
	}
	return hour, true
}

func buildDate(year, month, day, hour, minute, sec int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
