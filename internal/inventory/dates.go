package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"medstock/m/domain"
)

// Layouts tried before the numeric year-last forms. Each either starts with
// the year or spells the month, so none of them is ambiguous.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"20060102",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"Mon, 02 Jan 2006",
}

// ParseDate reads an expiration date written in any unambiguous common form
// and returns its calendar day.
func ParseDate(raw string) (domain.Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Date{}, invalidDate(raw, "date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t), nil
		}
	}
	if d, ok, err := parseYearLast(s); ok {
		if err != nil {
			return domain.Date{}, invalidDate(raw, err.Error())
		}
		return d, nil
	}
	return domain.Date{}, invalidDate(raw, "unrecognised date format, use YYYY-MM-DD")
}

func invalidDate(raw, msg string) error {
	return &domain.ValidationError{
		Field:   "expiration_date",
		Message: fmt.Sprintf("%q: %s", raw, msg),
		Kind:    domain.ErrInvalidDate,
	}
}

// parseYearLast handles a/b/yyyy with '/', '-' or '.' separators. The
// first value that cannot be a month is the day; when both could be, the
// input is only accepted if they are equal.
func parseYearLast(s string) (domain.Date, bool, error) {
	sep := strings.IndexAny(s, "/-.")
	if sep < 0 {
		return domain.Date{}, false, nil
	}
	parts := strings.Split(s, s[sep:sep+1])
	if len(parts) != 3 || len(parts[2]) != 4 {
		return domain.Date{}, false, nil
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if p == "" || len(p) > 4 {
			return domain.Date{}, false, nil
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return domain.Date{}, false, nil
		}
		nums[i] = n
	}
	a, b, year := nums[0], nums[1], nums[2]

	var month, day int
	switch {
	case a > 12 && b <= 12:
		day, month = a, b
	case b > 12 && a <= 12:
		month, day = a, b
	case a == b:
		month, day = a, b
	case a <= 12 && b <= 12:
		return domain.Date{}, true, fmt.Errorf("ambiguous day and month, use YYYY-MM-DD")
	default:
		return domain.Date{}, true, fmt.Errorf("no valid month")
	}
	return calendarDate(year, month, day)
}

func calendarDate(year, month, day int) (domain.Date, bool, error) {
	if month < 1 || month > 12 || day < 1 {
		return domain.Date{}, true, fmt.Errorf("no such calendar day")
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return domain.Date{}, true, fmt.Errorf("no such calendar day")
	}
	return domain.DateOf(t), true, nil
}
