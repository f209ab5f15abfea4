package timex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// LocalLayout is the naive "YYYY-MM-DDTHH:mm" form entered by operators.
	LocalLayout = "2006-01-02T15:04"
	// InstantLayout is the UTC wire form with millisecond precision.
	InstantLayout = "2006-01-02T15:04:05.000Z"
)

var ErrMalformedLocal = errors.New("malformed local date-time")

// LocalToInstant interprets s as wall-clock components in loc and returns the
// corresponding instant in UTC. Seconds are optional. Only the numeric
// components are used, so the result never depends on how a parser would
// treat a zone-less string.
func LocalToInstant(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	datePart, timePart, ok := strings.Cut(s, "T")
	if !ok {
		datePart, timePart, ok = strings.Cut(s, " ")
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedLocal, s)
	}

	ymd := strings.Split(datePart, "-")
	hms := strings.Split(timePart, ":")
	if len(ymd) != 3 || len(hms) < 2 || len(hms) > 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedLocal, s)
	}

	nums := make([]int, 0, 6)
	for _, part := range append(ymd, hms...) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedLocal, s)
		}
		nums = append(nums, n)
	}
	if len(nums) == 5 {
		nums = append(nums, 0)
	}

	year, month, day, hour, minute, sec := nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedLocal, s)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)
	if t.Month() != time.Month(month) {
		// day overflowed into the next month, e.g. 2024-02-30
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedLocal, s)
	}
	return t.UTC(), nil
}

// FormatInstant renders t as a UTC timestamp with millisecond precision.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// InstantToLocal renders t as wall-clock components in loc, the inverse of
// LocalToInstant at minute precision.
func InstantToLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(LocalLayout)
}

// OffsetMinutes returns the offset of loc from UTC at t, in minutes, with the
// sign convention of a browser's getTimezoneOffset: positive west of UTC.
func OffsetMinutes(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	_, offset := t.In(loc).Zone()
	return -offset / 60
}

// OffsetString formats the offset of loc at t as "+05:30" / "-04:00".
func OffsetString(t time.Time, loc *time.Location) string {
	east := -OffsetMinutes(t, loc)
	sign := '+'
	if east < 0 {
		sign = '-'
		east = -east
	}
	return fmt.Sprintf("%c%02d:%02d", sign, east/60, east%60)
}
