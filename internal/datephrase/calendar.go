package datephrase

import "time"

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// startOfWeek returns Monday 00:00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	back := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -back)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfQuarter(t time.Time) time.Time {
	first := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), first, 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// lastSecondBefore returns the final whole second preceding t.
func lastSecondBefore(t time.Time) time.Time {
	return t.Add(-time.Second)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// addMonths moves t by n calendar months, clamping the day to the length of
// the target month (March 31 minus one month is February 28/29).
func addMonths(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(floorMod(total, 12) + 1)
	day := t.Day()
	if max := daysIn(year, month, t.Location()); day > max {
		day = max
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

func addYears(t time.Time, n int) time.Time {
	return addMonths(t, 12*n)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// shift moves t back by n units.
func shift(t time.Time, n int, u unit) time.Time {
	switch u {
	case unitHour:
		return t.Add(-time.Duration(n) * time.Hour)
	case unitDay:
		return t.AddDate(0, 0, -n)
	case unitWeek:
		return t.AddDate(0, 0, -7*n)
	case unitMonth:
		return addMonths(t, -n)
	default:
		return addYears(t, -n)
	}
}
