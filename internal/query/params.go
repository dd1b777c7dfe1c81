package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/superbmd/superbmd/internal/models"
)

// DateLayout is the wire format for date-only parameters
const DateLayout = models.DateLayout

// ParamError reports malformed query parameters, keyed by parameter name
type ParamError struct {
	Fields map[string]string
}

func (e *ParamError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid query parameters: " + strings.Join(parts, "; ")
}

// errs collects per-field failures while parsing a request
type errs map[string]string

func (e errs) add(field, msg string) { e[field] = msg }

func (e errs) err() error {
	if len(e) == 0 {
		return nil
	}
	return &ParamError{Fields: e}
}

// Limits bounds page sizes
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits applies when no configuration is given
var DefaultLimits = Limits{Default: 10, Max: 100}

// Page is a validated page request
type Page struct {
	Page  int
	Limit int
}

// Offset is the number of rows skipped before this page
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads page and limit. Both must be positive integers when present;
// limit is capped at l.Max.
func ParsePage(v url.Values, l Limits) (Page, error) {
	e := errs{}
	p := Page{Page: 1, Limit: l.Default}
	if p.Limit <= 0 {
		p.Limit = DefaultLimits.Default
	}

	if n, ok := positiveInt(v, "page", e); ok {
		p.Page = n
	}
	if n, ok := positiveInt(v, "limit", e); ok {
		p.Limit = n
	}
	if l.Max > 0 && p.Limit > l.Max {
		p.Limit = l.Max
	}
	return p, e.err()
}

func positiveInt(v url.Values, key string, e errs) (int, bool) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		e.add(key, "must be a positive integer")
		return 0, false
	}
	return n, true
}

func optionalID(v url.Values, key string, e errs) *uint {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || n == 0 {
		e.add(key, "must be a positive integer")
		return nil
	}
	id := uint(n)
	return &id
}

func optionalCondition(v url.Values, key string, e errs) *models.Condition {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return nil
	}
	c, err := models.ParseCondition(raw)
	if err != nil {
		e.add(key, err.Error())
		return nil
	}
	return &c
}

// first returns the first non-empty value among keys
func first(v url.Values, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

// DateRange is a half-open [Start, End) interval. Either bound may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether neither bound is set
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// ParseDateRange reads start_date and end_date (YYYY-MM-DD). end_date covers
// the whole day, so End is the following midnight.
func ParseDateRange(v url.Values) (DateRange, error) {
	e := errs{}
	r := parseDateRange(v, e)
	return r, e.err()
}

func parseDateRange(v url.Values, e errs) DateRange {
	var r DateRange
	if raw := strings.TrimSpace(v.Get("start_date")); raw != "" {
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			e.add("start_date", "must be a date in YYYY-MM-DD format")
		} else {
			r.Start = &t
		}
	}
	if raw := strings.TrimSpace(v.Get("end_date")); raw != "" {
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			e.add("end_date", "must be a date in YYYY-MM-DD format")
		} else {
			end := t.AddDate(0, 0, 1)
			r.End = &end
		}
	}
	if r.Start != nil && r.End != nil && !r.Start.Before(*r.End) {
		e.add("end_date", "must not be before start_date")
	}
	return r
}

// Describe renders the range for logs and export titles
func (r DateRange) Describe() string {
	switch {
	case r.Start != nil && r.End != nil:
		return fmt.Sprintf("%s s/d %s", r.Start.Format(DateLayout), r.End.AddDate(0, 0, -1).Format(DateLayout))
	case r.Start != nil:
		return "sejak " + r.Start.Format(DateLayout)
	case r.End != nil:
		return "hingga " + r.End.AddDate(0, 0, -1).Format(DateLayout)
	default:
		return "semua tanggal"
	}
}
