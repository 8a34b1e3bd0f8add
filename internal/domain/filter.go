package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateTimeLayout is the wire format of filter dates and exported date literals.
const DateTimeLayout = "2006-01-02 15:04:05"

// DefaultLimit is the page size used when a request does not specify one.
const DefaultLimit = 200

// Sentinels are values meaning "do not filter on this field".
var Sentinels = []string{"ALL", "TODOS"}

// IsSet reports whether an optional filter value should produce a predicate.
// A value is unset when it is empty after trimming or equals a sentinel,
// compared case-insensitively.
func IsSet(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, s := range Sentinels {
		if strings.EqualFold(v, s) {
			return false
		}
	}
	return true
}

// Filter is the validated, immutable set of constraints for one request.
type Filter struct {
	StartDate time.Time
	EndDate   time.Time
	EntityID  string
	NumericID *int64
	Action    string // upper-cased, "" when unset
	Group     string // "" when unset
	Status    string // "" when unset
	Limit     int
	Offset    int
}

// HasDateRange reports whether both bounds are present.
func (f Filter) HasDateRange() bool {
	return !f.StartDate.IsZero() && !f.EndDate.IsZero()
}

// WithoutPage returns a copy of f without a page window, used by exports.
func (f Filter) WithoutPage() Filter {
	f.Limit = 0
	f.Offset = 0
	return f
}

// Input renders the filter back to its wire form.
func (f Filter) Input() FilterInput {
	in := FilterInput{
		EntityID: f.EntityID,
		Action:   f.Action,
		Group:    f.Group,
		Status:   f.Status,
		Limit:    intPtr(f.Limit),
		Offset:   intPtr(f.Offset),
	}
	if !f.StartDate.IsZero() {
		in.StartDate = f.StartDate.Format(DateTimeLayout)
	}
	if !f.EndDate.IsZero() {
		in.EndDate = f.EndDate.Format(DateTimeLayout)
	}
	if f.NumericID != nil {
		in.NumericID = NumericID(strconv.FormatInt(*f.NumericID, 10))
	}
	return in
}

// NumericID accepts a JSON number, a numeric string, an empty string, null or
// a sentinel. It keeps the raw text so that sentinel handling happens in one
// place.
type NumericID string

// UnmarshalJSON implements json.Unmarshaler.
func (n *NumericID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*n = NumericID(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("numeric_id: %w", err)
	}
	*n = NumericID(num.String())
	return nil
}

// MarshalJSON renders set ids as numbers and unset ids as null.
func (n NumericID) MarshalJSON() ([]byte, error) {
	if !IsSet(string(n)) {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return []byte(n), nil
	}
	return json.Marshal(string(n))
}

// FilterInput is the wire representation of a filter as received from the
// request boundary or produced by the natural-language extractor.
type FilterInput struct {
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	EntityID  string    `json:"entity_id"`
	NumericID NumericID `json:"numeric_id,omitempty"`
	Action    string    `json:"action,omitempty"`
	Group     string    `json:"group,omitempty"`
	Status    string    `json:"status,omitempty"`
	Limit     *int      `json:"limit,omitempty"`
	Offset    *int      `json:"offset,omitempty"`
}

// Normalize validates the input and produces a Filter.
func (in FilterInput) Normalize() (Filter, error) {
	var f Filter

	if strings.TrimSpace(in.StartDate) == "" {
		return f, ErrMissingField("start_date")
	}
	if strings.TrimSpace(in.EndDate) == "" {
		return f, ErrMissingField("end_date")
	}
	start, err := ParseDateTime(in.StartDate)
	if err != nil {
		return f, ErrValidation("start_date: %v", err)
	}
	end, err := ParseDateTime(in.EndDate)
	if err != nil {
		return f, ErrValidation("end_date: %v", err)
	}
	if start.After(end) {
		return f, ErrValidation("start_date %s is after end_date %s", in.StartDate, in.EndDate)
	}
	f.StartDate, f.EndDate = start, end

	f.EntityID = strings.TrimSpace(in.EntityID)
	if f.EntityID == "" {
		return f, ErrMissingField("entity_id")
	}

	if raw := strings.TrimSpace(string(in.NumericID)); IsSet(raw) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, ErrValidation("numeric_id %q is not an integer", raw)
		}
		f.NumericID = &id
	}
	if IsSet(in.Action) {
		f.Action = strings.ToUpper(strings.TrimSpace(in.Action))
	}
	if IsSet(in.Group) {
		f.Group = strings.TrimSpace(in.Group)
	}
	if IsSet(in.Status) {
		f.Status = strings.TrimSpace(in.Status)
	}

	f.Limit = DefaultLimit
	if in.Limit != nil {
		f.Limit = *in.Limit
	}
	if in.Offset != nil {
		f.Offset = *in.Offset
	}
	if f.Limit < 0 {
		return f, ErrValidation("limit must be greater than or equal to 0")
	}
	if f.Offset < 0 {
		return f, ErrValidation("offset must be greater than or equal to 0")
	}
	return f, nil
}

// ParseDateTime parses a "YYYY-MM-DD HH:MM:SS" value in the local time zone.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD HH:MM:SS", s)
	}
	return t, nil
}

func intPtr(i int) *int { return &i }
