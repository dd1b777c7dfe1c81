package query

import (
	"net/url"
	"strings"

	"github.com/superbmd/superbmd/internal/models"
	"gorm.io/gorm"
)

// likeEscaper escapes LIKE wildcards so user input matches literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains builds a case-insensitive substring pattern
func contains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// ilike matches any of cols against a case-insensitive substring
func ilike(db *gorm.DB, term string, cols ...string) *gorm.DB {
	pattern := contains(term)
	clauses := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		clauses[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func applyRange(db *gorm.DB, col string, r DateRange) *gorm.DB {
	if r.Start != nil {
		db = db.Where(col+" >= ?", *r.Start)
	}
	if r.End != nil {
		db = db.Where(col+" < ?", *r.End)
	}
	return db
}

// AssetFilter narrows asset listings
type AssetFilter struct {
	Search           string
	LocationID       *uint
	Condition        *models.Condition
	ResponsibleParty string
	Range            DateRange

	// Owner restricts rows to one responsible party (exact match). It is set
	// from the caller's visibility scope, never from request input.
	Owner string
}

// ParseAssetFilter reads search, location_id, condition, penanggung_jawab
// (or responsible_party), start_date and end_date.
func ParseAssetFilter(v url.Values) (AssetFilter, error) {
	e := errs{}
	f := AssetFilter{
		Search:           strings.TrimSpace(v.Get("search")),
		LocationID:       optionalID(v, "location_id", e),
		Condition:        optionalCondition(v, "condition", e),
		ResponsibleParty: first(v, "penanggung_jawab", "responsible_party"),
		Range:            parseDateRange(v, e),
	}
	return f, e.err()
}

// Scope applies the filter to a query over assets
func (f AssetFilter) Scope(db *gorm.DB) *gorm.DB {
	if f.Owner != "" {
		db = db.Where("assets.responsible_party = ?", f.Owner)
	}
	if f.Search != "" {
		db = ilike(db, f.Search, "assets.name", "assets.code")
	}
	if f.LocationID != nil {
		db = db.Where("assets.location_id = ?", *f.LocationID)
	}
	if f.Condition != nil {
		db = db.Where("assets.kondisi = ?", *f.Condition)
	}
	if f.ResponsibleParty != "" {
		db = ilike(db, f.ResponsibleParty, "assets.responsible_party")
	}
	return applyRange(db, "assets.entry_date", f.Range)
}

// LocationFilter narrows location listings
type LocationFilter struct {
	Search string
}

// ParseLocationFilter reads search
func ParseLocationFilter(v url.Values) LocationFilter {
	return LocationFilter{Search: strings.TrimSpace(v.Get("search"))}
}

// Scope applies the filter to a query over locations
func (f LocationFilter) Scope(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		db = ilike(db, f.Search, "locations.name", "locations.code")
	}
	return db
}

// UserFilter narrows user listings
type UserFilter struct {
	Search string
	Role   *models.Role
}

// ParseUserFilter reads search and role
func ParseUserFilter(v url.Values) (UserFilter, error) {
	e := errs{}
	f := UserFilter{Search: strings.TrimSpace(v.Get("search"))}
	if raw := strings.TrimSpace(v.Get("role")); raw != "" {
		r, err := models.ParseRole(raw)
		if err != nil {
			e.add("role", err.Error())
		} else {
			f.Role = &r
		}
	}
	return f, e.err()
}

// Scope applies the filter to a query over users
func (f UserFilter) Scope(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		db = ilike(db, f.Search, "users.username")
	}
	if f.Role != nil {
		db = db.Where("users.role = ?", *f.Role)
	}
	return db
}

// ReportFilter is the filter vocabulary shared by reports
type ReportFilter struct {
	LocationID *uint
	Condition  *models.Condition
	Range      DateRange
	Owner      string
}

// ParseReportFilter reads location_id, condition, start_date and end_date
func ParseReportFilter(v url.Values) (ReportFilter, error) {
	e := errs{}
	f := ReportFilter{
		LocationID: optionalID(v, "location_id", e),
		Condition:  optionalCondition(v, "condition", e),
		Range:      parseDateRange(v, e),
	}
	return f, e.err()
}
