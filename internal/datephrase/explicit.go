package datephrase

import (
	"regexp"
	"strconv"
	"time"
)

const timeSuffix = `(?:[ t](\d{1,2}):(\d{2})(?::(\d{2}))?)?`

var (
	isoLiteral  = `\d{4}-\d{1,2}-\d{1,2}(?:[ t]\d{1,2}:\d{2}(?::\d{2})?)?`
	dmyLiteral  = `\d{1,2}[/.-]\d{1,2}[/.-]\d{4}(?: \d{1,2}:\d{2}(?::\d{2})?)?`
	dmyText     = `\d{1,2}(?: de)? (?:` + monthAlt + `)(?:(?: de| del|,)? \d{4})?`
	mdyText     = `(?:` + monthAlt + `) \d{1,2}(?:,? \d{4})?`
	dateLiteral = `(?:` + isoLiteral + `|` + dmyLiteral + `|` + dmyText + `|` + mdyText + `)`

	explicitRangeRe = regexp.MustCompile(
		`\b(?:from|between|desde|entre|del|de)\s+(?:el\s+)?(` + dateLiteral + `|\d{1,2})` +
			`\s+(?:to|until|till|through|and|hasta|al|a|y)\s+(?:el\s+)?(` + dateLiteral + `)`)

	isoRe     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})` + timeSuffix + `$`)
	dmyRe     = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})` + timeSuffix + `$`)
	dmyTextRe = regexp.MustCompile(`^(\d{1,2})(?: de)? (` + monthAlt + `)(?:(?: de| del|,)? (\d{4}))?$`)
	mdyTextRe = regexp.MustCompile(`^(` + monthAlt + `) (\d{1,2})(?:,? (\d{4}))?$`)
	dayOnlyRe = regexp.MustCompile(`^(\d{1,2})$`)
)

type literal struct {
	t       time.Time
	hasTime bool
	// dayOnly is set for a bare day number that borrows month and year from
	// the other end of the range ("del 1 al 5 de marzo").
	dayOnly int
}

func explicitRange(text string, now time.Time) (Range, bool) {
	m := explicitRangeRe.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false
	}
	from, ok := parseLiteral(m[1], now)
	if !ok {
		return Range{}, false
	}
	to, ok := parseLiteral(m[2], now)
	if !ok || to.dayOnly > 0 {
		return Range{}, false
	}
	if from.dayOnly > 0 {
		y, mo, _ := to.t.Date()
		if from.dayOnly > daysIn(y, mo, now.Location()) {
			return Range{}, false
		}
		from.t = time.Date(y, mo, from.dayOnly, 0, 0, 0, 0, now.Location())
	}

	if from.t.After(to.t) {
		from, to = to, from
	}
	start := from.t
	if !from.hasTime {
		start = startOfDay(start)
	}
	end := to.t
	if !to.hasTime {
		end = endOfDay(end)
	}
	return Range{Start: start, End: end}, true
}

func parseLiteral(s string, now time.Time) (literal, bool) {
	loc := now.Location()
	if m := isoRe.FindStringSubmatch(s); m != nil {
		return build(atoi(m[1]), atoi(m[2]), atoi(m[3]), m[4:], loc)
	}
	if m := dmyRe.FindStringSubmatch(s); m != nil {
		return build(atoi(m[3]), atoi(m[2]), atoi(m[1]), m[4:], loc)
	}
	if m := dmyTextRe.FindStringSubmatch(s); m != nil {
		return build(yearOr(m[3], now), int(monthWords[m[2]]), atoi(m[1]), nil, loc)
	}
	if m := mdyTextRe.FindStringSubmatch(s); m != nil {
		return build(yearOr(m[3], now), int(monthWords[m[1]]), atoi(m[2]), nil, loc)
	}
	if m := dayOnlyRe.FindStringSubmatch(s); m != nil {
		d := atoi(m[1])
		if d < 1 || d > 31 {
			return literal{}, false
		}
		return literal{dayOnly: d}, true
	}
	return literal{}, false
}

// build validates the calendar fields instead of letting time.Date normalize
// "2025-02-30" into March.
func build(year, month, day int, clock []string, loc *time.Location) (literal, bool) {
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month), loc) {
		return literal{}, false
	}
	var h, mi, sec int
	hasTime := len(clock) == 3 && clock[0] != ""
	if hasTime {
		h, mi = atoi(clock[0]), atoi(clock[1])
		if clock[2] != "" {
			sec = atoi(clock[2])
		}
		if h > 23 || mi > 59 || sec > 59 {
			return literal{}, false
		}
	}
	return literal{t: time.Date(year, time.Month(month), day, h, mi, sec, 0, loc), hasTime: hasTime}, true
}

func yearOr(s string, now time.Time) int {
	if s == "" {
		return now.Year()
	}
	return atoi(s)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
