package datephrase

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type unit int

const (
	unitHour unit = iota
	unitDay
	unitWeek
	unitMonth
	unitYear
)

var unitWords = map[string]unit{
	"hour": unitHour, "hours": unitHour, "hora": unitHour, "horas": unitHour, "hrs": unitHour,
	"day": unitDay, "days": unitDay, "dia": unitDay, "dias": unitDay,
	"week": unitWeek, "weeks": unitWeek, "semana": unitWeek, "semanas": unitWeek,
	"month": unitMonth, "months": unitMonth, "mes": unitMonth, "meses": unitMonth,
	"year": unitYear, "years": unitYear, "ano": unitYear, "anos": unitYear,
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"un": 1, "uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5, "seis": 6,
	"siete": 7, "ocho": 8, "nueve": 9, "diez": 10, "once": 11, "doce": 12,
}

var monthWords = map[string]time.Month{
	"january": time.January, "jan": time.January, "enero": time.January, "ene": time.January,
	"february": time.February, "feb": time.February, "febrero": time.February,
	"march": time.March, "mar": time.March, "marzo": time.March,
	"april": time.April, "apr": time.April, "abril": time.April, "abr": time.April,
	"may": time.May, "mayo": time.May,
	"june": time.June, "jun": time.June, "junio": time.June,
	"july": time.July, "jul": time.July, "julio": time.July,
	"august": time.August, "aug": time.August, "agosto": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"septiembre": time.September, "setiembre": time.September,
	"october": time.October, "oct": time.October, "octubre": time.October,
	"november": time.November, "nov": time.November, "noviembre": time.November,
	"december": time.December, "dec": time.December, "diciembre": time.December, "dic": time.December,
}

// alternation builds a regexp alternation of the map keys, longest first so
// that "septiembre" is preferred over "sep".
func alternation[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	sortByLengthDesc(keys)
	return strings.Join(keys, "|")
}

func sortByLengthDesc(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && (len(s[j]) > len(s[j-1]) || (len(s[j]) == len(s[j-1]) && s[j] < s[j-1])); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

var (
	numberPattern = `(\d+|` + alternation(numberWords) + `)`
	unitPattern   = `(` + alternation(unitWords) + `)`
	monthAlt      = alternation(monthWords)
	monthPattern  = `(` + monthAlt + `)`
)

func parseNumber(s string) (int, bool) {
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// newAccentFolder returns a fresh transformer; a transform.Chain keeps
// internal buffers and must not be shared between goroutines.
func newAccentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Normalize lower-cases text, strips accents and collapses whitespace so that
// "Últimos  3 MESES" and "ultimos 3 meses" match the same rules.
func Normalize(text string) string {
	folded, _, err := transform.String(newAccentFolder(), strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	return strings.Join(strings.Fields(folded), " ")
}
