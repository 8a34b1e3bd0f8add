// Package datephrase turns English and Spanish relative date expressions
// ("last 3 days", "ayer", "del 1 al 5 de marzo") into concrete ranges.
package datephrase

import (
	"regexp"
	"strconv"
	"time"
)

// Rule names the expression kind that produced a Range.
type Rule string

const (
	RuleExplicitRange  Rule = "explicit_range"
	RuleDayKeyword     Rule = "day_keyword"
	RuleLastN          Rule = "last_n"
	RuleAgo            Rule = "ago"
	RuleCurrentPeriod  Rule = "current_period"
	RulePreviousPeriod Rule = "previous_period"
	RuleWeekend        Rule = "weekend"
	RuleStartOfMonth   Rule = "start_of_month"
	RuleFallback       Rule = "fallback"
)

// Range is a closed [Start, End] interval with second precision.
type Range struct {
	Start time.Time
	End   time.Time
	Rule  Rule
}

// Matched reports whether the range came from an expression in the text
// rather than the today fallback.
func (r Range) Matched() bool { return r.Rule != RuleFallback }

type rule struct {
	name    Rule
	resolve func(text string, now time.Time) (Range, bool)
}

// rules are tried in order; the first match wins.
var rules = []rule{
	{RuleExplicitRange, explicitRange},
	{RuleDayKeyword, dayKeyword},
	{RuleLastN, lastN},
	{RuleAgo, ago},
	{RuleCurrentPeriod, currentPeriod},
	{RulePreviousPeriod, previousPeriod},
	{RuleWeekend, weekend},
	{RuleStartOfMonth, startOfMonthPhrase},
}

// Resolve returns the date range described by text relative to now. Text
// without a recognizable expression resolves to the whole of today.
func Resolve(text string, now time.Time) Range {
	now = now.Truncate(time.Second)
	norm := Normalize(text)
	for _, r := range rules {
		if out, ok := r.resolve(norm, now); ok {
			out.Rule = r.name
			out.Start, out.End = out.Start.Truncate(time.Second), out.End.Truncate(time.Second)
			if out.Start.After(out.End) {
				out.Start, out.End = out.End, out.Start
			}
			return out
		}
	}
	return Range{Start: startOfDay(now), End: endOfDay(now), Rule: RuleFallback}
}

// ResolveNow resolves text against the current local time.
func ResolveNow(text string) Range {
	return Resolve(text, time.Now())
}

var (
	dayBeforeYesterdayRe = regexp.MustCompile(`\b(?:day before yesterday|anteayer|antes de ayer)\b`)
	yesterdayRe          = regexp.MustCompile(`\b(?:yesterday|ayer)\b`)
	todayRe              = regexp.MustCompile(`\b(?:today|hoy)\b`)
)

func dayKeyword(text string, now time.Time) (Range, bool) {
	var day time.Time
	switch {
	case dayBeforeYesterdayRe.MatchString(text):
		day = now.AddDate(0, 0, -2)
	case yesterdayRe.MatchString(text):
		day = now.AddDate(0, 0, -1)
	case todayRe.MatchString(text):
		day = now
	default:
		return Range{}, false
	}
	return Range{Start: startOfDay(day), End: endOfDay(day)}, true
}

var lastNRe = regexp.MustCompile(
	`\b(?:last|past|previous|ultim[oa]s|pasad[oa]s)\s+` + numberPattern + `\s+` + unitPattern + `\b`)

func lastN(text string, now time.Time) (Range, bool) {
	m := lastNRe.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false
	}
	return window(m[1], m[2], now)
}

var (
	agoRe  = regexp.MustCompile(`\b` + numberPattern + `\s+` + unitPattern + `\s+ago\b`)
	haceRe = regexp.MustCompile(`\bhace\s+` + numberPattern + `\s+` + unitPattern + `\b`)
)

func ago(text string, now time.Time) (Range, bool) {
	m := agoRe.FindStringSubmatch(text)
	if m == nil {
		m = haceRe.FindStringSubmatch(text)
	}
	if m == nil {
		return Range{}, false
	}
	return window(m[1], m[2], now)
}

// maxWindow bounds relative windows to about a century, which also keeps
// hour windows inside time.Duration.
var maxWindow = map[unit]int{
	unitHour:  100 * 366 * 24,
	unitDay:   100 * 366,
	unitWeek:  100 * 53,
	unitMonth: 100 * 12,
	unitYear:  100,
}

func window(num, unitWord string, now time.Time) (Range, bool) {
	n, ok := parseNumber(num)
	if !ok {
		return Range{}, false
	}
	u, ok := unitWords[unitWord]
	if !ok || n > maxWindow[u] {
		return Range{}, false
	}
	return Range{Start: shift(now, n, u), End: now}, true
}

type period int

const (
	periodWeek period = iota
	periodMonth
	periodQuarter
	periodYear
)

var periodWords = map[string]period{
	"week": periodWeek, "semana": periodWeek,
	"month": periodMonth, "mes": periodMonth,
	"quarter": periodQuarter, "trimestre": periodQuarter,
	"year": periodYear, "ano": periodYear,
}

var (
	currentPeriodEnRe = regexp.MustCompile(`\b(?:this|current)\s+(week|month|quarter|year)\b`)
	currentPeriodEsRe = regexp.MustCompile(`\b(?:esta\s+(semana)|este\s+(mes|trimestre|ano))\b`)
)

func currentPeriod(text string, now time.Time) (Range, bool) {
	word := ""
	if m := currentPeriodEnRe.FindStringSubmatch(text); m != nil {
		word = m[1]
	} else if m := currentPeriodEsRe.FindStringSubmatch(text); m != nil {
		word = m[1] + m[2]
	}
	p, ok := periodWords[word]
	if !ok {
		return Range{}, false
	}
	// The period is clipped at now, so it always ends at now.
	return Range{Start: periodStart(p, now), End: now}, true
}

var (
	previousPeriodEnRe = regexp.MustCompile(`\b(?:last|previous|past)\s+(week|month|quarter|year)\b`)
	previousPeriodEsRe = regexp.MustCompile(`(\bfin de\s+)?\b(semana|mes|trimestre|ano)\s+(?:pasad[oa]|anterior)\b`)
)

func previousPeriod(text string, now time.Time) (Range, bool) {
	word := ""
	if m := previousPeriodEnRe.FindStringSubmatch(text); m != nil {
		word = m[1]
	} else {
		for _, m := range previousPeriodEsRe.FindAllStringSubmatch(text, -1) {
			if m[1] != "" {
				// "fin de semana pasado" is a weekend.
				continue
			}
			word = m[2]
			break
		}
	}
	p, ok := periodWords[word]
	if !ok {
		return Range{}, false
	}
	current := periodStart(p, now)
	var prev time.Time
	switch p {
	case periodWeek:
		prev = current.AddDate(0, 0, -7)
	case periodMonth:
		prev = addMonths(current, -1)
	case periodQuarter:
		prev = addMonths(current, -3)
	default:
		prev = addYears(current, -1)
	}
	return Range{Start: prev, End: lastSecondBefore(current)}, true
}

func periodStart(p period, now time.Time) time.Time {
	switch p {
	case periodWeek:
		return startOfWeek(now)
	case periodMonth:
		return startOfMonth(now)
	case periodQuarter:
		return startOfQuarter(now)
	default:
		return startOfYear(now)
	}
}

var (
	lastWeekendRe = regexp.MustCompile(
		`\b(?:(?:last|past|previous)\s+weekend|(?:el\s+)?fin de\s+semana\s+(?:pasado|anterior))\b`)
	thisWeekendRe = regexp.MustCompile(`\b(?:this\s+weekend|weekend|este\s+fin de\s+semana|fin de\s+semana)\b`)
)

func weekend(text string, now time.Time) (Range, bool) {
	monday := startOfWeek(now)
	var saturday time.Time
	switch {
	case lastWeekendRe.MatchString(text):
		saturday = monday.AddDate(0, 0, -2)
	case thisWeekendRe.MatchString(text):
		saturday = monday.AddDate(0, 0, 5)
	default:
		return Range{}, false
	}
	return Range{Start: saturday, End: endOfDay(saturday.AddDate(0, 0, 1))}, true
}

var (
	startOfMonthEnRe = regexp.MustCompile(
		`\b(?:start|beginning)\s+of\s+` + monthPattern + `(?:\s+(?:of\s+)?(\d{4}))?\b`)
	startOfMonthEsRe = regexp.MustCompile(
		`\b(?:inicios?|principios?|comienzos?)\s+de\s+` + monthPattern + `(?:\s+(?:de|del)\s+(\d{4}))?\b`)
)

// startOfMonthPhrase resolves "since the start of <month>" as an open-ended
// range ending now. A month still in the future this year means last year.
func startOfMonthPhrase(text string, now time.Time) (Range, bool) {
	m := startOfMonthEnRe.FindStringSubmatch(text)
	if m == nil {
		m = startOfMonthEsRe.FindStringSubmatch(text)
	}
	if m == nil {
		return Range{}, false
	}
	month := monthWords[m[1]]
	end := now
	if m[2] != "" {
		year, _ := strconv.Atoi(m[2])
		start := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
		if start.After(end) {
			end = lastSecondBefore(addMonths(start, 1))
		}
		return Range{Start: start, End: end}, true
	}
	start := time.Date(now.Year(), month, 1, 0, 0, 0, 0, now.Location())
	if start.After(end) {
		start = addYears(start, -1)
	}
	return Range{Start: start, End: end}, true
}
