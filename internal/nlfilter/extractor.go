// Package nlfilter extracts a record filter from a free-text request such as
// "entity id DTH01 action ALTA last 3 days" using regular expressions and the
// date-phrase resolver.
package nlfilter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"provisioning-audit/internal/datephrase"
	"provisioning-audit/internal/domain"
)

// Extraction is the outcome of parsing one free-text request.
type Extraction struct {
	Filter domain.FilterInput
	Range  datephrase.Range
	// Errors lists every validation problem; the filter is only usable when
	// it is empty. Dates are left blank when the text names no period.
	Errors []string
}

// Err returns the extraction problems as a *domain.ExtractionError, or nil.
func (e Extraction) Err() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return &domain.ExtractionError{Problems: e.Errors}
}

// Actions recognised without an explicit "action" marker.
var Actions = []string{"alta", "baja", "modificacion", "consulta", "update", "delete"}

// All patterns run over datephrase.Normalize output: lower case, no accents.
var (
	entityExplicitRe = regexp.MustCompile(
		`\b(?:entity|ne|pri[ _-]?ne)[ _-]?id\s*(?:[:=]\s*|(?:is|es)\s+)?([a-z0-9][a-z0-9_-]*)`)
	entityPrepositionRe = regexp.MustCompile(
		`\b(?:for|on|about|para|en|sobre)\s+(?:the\s+|el\s+|la\s+)?([a-z]{2,}\d+[a-z0-9]*)\b`)
	entityBareRe = regexp.MustCompile(`\b([A-Z]{3}\d+)\b`)

	numericIDRe     = regexp.MustCompile(`\b(?:pri[ _-]?)?id\b\s*[:=#]?\s*(\d+)\b`)
	entityPrefixRe  = regexp.MustCompile(`(?:entity|ne)[ _-]?$`)
	actionExplicit  = regexp.MustCompile(`\b(?:action|accion|keyword|pri[ _-]?action)\b\s*[:=]?\s*([a-z_]+)\b`)
	actionKeywordRe = regexp.MustCompile(`\b(` + strings.Join(Actions, "|") + `)(?:e?s)?\b`)
	statusRe        = regexp.MustCompile(`\b(?:status|estado)\b\s*[:=]?\s*([a-z0-9_-]+)\b`)
	groupRe         = regexp.MustCompile(`\b(?:group|grupo)\b\s*[:=]?\s*([a-z0-9_-]+)\b`)
	limitRe         = regexp.MustCompile(`\b(?:limit|limite|top)\b\s*[:=]?\s*(\d+)\b`)
)

// Extract parses text relative to now.
func Extract(text string, now time.Time) Extraction {
	norm := datephrase.Normalize(text)
	rng := datephrase.Resolve(text, now)

	limit, offset := domain.DefaultLimit, 0
	if m := limitRe.FindStringSubmatch(norm); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			limit = n
		}
	}

	in := domain.FilterInput{
		EntityID:  entityID(norm),
		NumericID: numericID(norm),
		Action:    action(norm),
		Status:    upperMatch(statusRe, norm),
		Group:     upperMatch(groupRe, norm),
		Limit:     &limit,
		Offset:    &offset,
	}

	var problems []string
	if in.EntityID == "" {
		problems = append(problems, domain.ErrMissingField("entity_id").Error())
	}
	// A fallback range means the text named no period.
	if rng.Matched() {
		in.StartDate = rng.Start.Format(domain.DateTimeLayout)
		in.EndDate = rng.End.Format(domain.DateTimeLayout)
	} else {
		problems = append(problems, domain.ErrMissingField("start_date").Error())
	}
	return Extraction{Filter: in, Range: rng, Errors: problems}
}

func entityID(norm string) string {
	if m := entityExplicitRe.FindStringSubmatch(norm); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := entityPrepositionRe.FindStringSubmatch(norm); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := entityBareRe.FindStringSubmatch(strings.ToUpper(norm)); m != nil {
		return m[1]
	}
	return ""
}

// numericID skips "entity id 123" style matches, which name the entity.
func numericID(norm string) domain.NumericID {
	for _, loc := range numericIDRe.FindAllStringSubmatchIndex(norm, -1) {
		if entityPrefixRe.MatchString(norm[:loc[0]]) {
			continue
		}
		return domain.NumericID(norm[loc[2]:loc[3]])
	}
	return ""
}

func action(norm string) string {
	if m := actionExplicit.FindStringSubmatch(norm); m != nil {
		if !domain.IsSet(m[1]) {
			return ""
		}
		return strings.ToUpper(m[1])
	}
	if m := actionKeywordRe.FindStringSubmatch(norm); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

func upperMatch(re *regexp.Regexp, norm string) string {
	m := re.FindStringSubmatch(norm)
	if m == nil || !domain.IsSet(m[1]) {
		return ""
	}
	return strings.ToUpper(m[1])
}
