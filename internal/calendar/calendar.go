// Package calendar holds the date arithmetic behind membership and assignment
// windows. Every value is a civil (local calendar) date; nothing in here reads
// the wall clock, callers pass "today" in explicitly.
package calendar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DisplayLayout is the day-first format used in client-facing messages and documents.
const DisplayLayout = "02/01/2006"

// AddMonths adds n calendar months to d.
//
// Rollover rule: overflow, the same normalization time.AddDate and the
// JavaScript Date object apply. A day that does not exist in the target month
// spills into the next one, so 2024-01-31 + 1 month is 2024-03-02 and
// 2023-01-31 + 1 month is 2023-03-03.
func AddMonths(d civil.Date, n int) civil.Date {
	t := time.Date(d.Year, d.Month+time.Month(n), d.Day, 0, 0, 0, 0, time.UTC)
	return civil.DateOf(t)
}

// DaysRemaining returns the number of days from today until target, rounded up.
// Both values are whole calendar dates, so the ceiling is the exact day count;
// the result is negative once target is in the past.
func DaysRemaining(target, today civil.Date) int {
	return target.DaysSince(today)
}

// DaysUntil is the instant-based form of DaysRemaining: the ceiling of the
// real time left from now until target begins in loc.
func DaysUntil(target civil.Date, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	left := target.In(loc).Sub(now)
	return int(math.Ceil(left.Hours() / 24))
}

// Today returns the calendar date of now as seen in loc. A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(now.In(loc))
}

// ParseLocalDate parses a YYYY-MM-DD string into a calendar date by splitting
// it into its year, month and day components. It never goes through an
// instant, so the day cannot shift with the process timezone.
func ParseLocalDate(s string) (civil.Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return civil.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		if !allDigits(p) {
			return civil.Date{}, fmt.Errorf("invalid date %q: non-numeric component %q", s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return civil.Date{}, fmt.Errorf("invalid date %q: non-numeric component %q", s, p)
		}
		nums[i] = n
	}

	d := civil.Date{Year: nums[0], Month: time.Month(nums[1]), Day: nums[2]}
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("invalid date %q: out of range", s)
	}
	return d, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatLocalDate renders d as YYYY-MM-DD, the inverse of ParseLocalDate.
func FormatLocalDate(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// FormatDisplay renders d as DD/MM/YYYY.
func FormatDisplay(d civil.Date) string {
	return d.In(time.UTC).Format(DisplayLayout)
}

// Window is the position of "today" relative to a window's end date.
type Window int

const (
	WindowOpen    Window = iota // more than the closing margin left
	WindowClosing               // ends within the closing margin, still valid
	WindowClosed                // end date already passed
)

// ClassifyWindow places today relative to a window ending on end. The end date
// itself is still inside the window; closingDays is the near-term margin that
// turns an open window into a closing one.
func ClassifyWindow(end, today civil.Date, closingDays int) Window {
	remaining := DaysRemaining(end, today)
	switch {
	case remaining < 0:
		return WindowClosed
	case remaining <= closingDays:
		return WindowClosing
	default:
		return WindowOpen
	}
}
