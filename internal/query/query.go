// Package query turns an applicant filter set into a parameterized read
// query. Filter values only ever travel as bound arguments.
package query

import (
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/swayamsankar/intern-app/internal/db"
)

// All is the sentinel the dashboard sends for "no constraint" on the
// position type and department dimensions.
const All = "all"

// OrderBy is the fixed listing order: newest submission first, ties broken
// by the later insert.
const OrderBy = "submitted_at DESC, id DESC"

const likeEscape = "!"

var searchColumns = []string{"name", "email", "department"}

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

type Filter struct {
	Search       string `json:"search,omitempty"`
	PositionType string `json:"position_type,omitempty"`
	Department   string `json:"department,omitempty"`
}

// FromValues reads a filter from query-string parameters.
func FromValues(v url.Values) Filter {
	return Filter{
		Search:       v.Get("search"),
		PositionType: v.Get("position_type"),
		Department:   v.Get("department"),
	}
}

// Normalize trims every field and clears the "all" sentinel, so an empty
// field always means the dimension is unconstrained.
func (f Filter) Normalize() Filter {
	out := Filter{
		Search:       strings.TrimSpace(f.Search),
		PositionType: strings.TrimSpace(f.PositionType),
		Department:   strings.TrimSpace(f.Department),
	}
	if strings.EqualFold(out.PositionType, All) {
		out.PositionType = ""
	}
	if strings.EqualFold(out.Department, All) {
		out.Department = ""
	}
	return out
}

func (f Filter) IsEmpty() bool {
	n := f.Normalize()
	return n.Search == "" && n.PositionType == "" && n.Department == ""
}

// Clause is the built query: a WHERE expression made of fixed fragments,
// its positional arguments, and the ORDER BY expression.
type Clause struct {
	Where   string
	Args    []any
	OrderBy string
}

func Build(f Filter) Clause {
	f = f.Normalize()
	var (
		conds []string
		args  []any
	)

	if f.Search != "" {
		term := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
		ors := make([]string, 0, len(searchColumns))
		for _, col := range searchColumns {
			ors = append(ors, "LOWER("+col+") LIKE ? ESCAPE '"+likeEscape+"'")
			args = append(args, term)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if f.PositionType != "" {
		conds = append(conds, "position_type = ?")
		args = append(args, f.PositionType)
	}
	if f.Department != "" {
		conds = append(conds, "department = ?")
		args = append(args, f.Department)
	}

	return Clause{
		Where:   strings.Join(conds, " AND "),
		Args:    args,
		OrderBy: OrderBy,
	}
}

// Scope applies the filter and the listing order to a gorm query.
func Scope(f Filter) func(*gorm.DB) *gorm.DB {
	c := Build(f)
	return func(tx *gorm.DB) *gorm.DB {
		if c.Where != "" {
			tx = tx.Where(c.Where, c.Args...)
		}
		return tx.Order(c.OrderBy)
	}
}

// Matches reports whether a satisfies f. It is the in-memory counterpart of
// Build for already loaded rows.
func (f Filter) Matches(a db.Applicant) bool {
	f = f.Normalize()
	if f.PositionType != "" && string(a.PositionType) != f.PositionType {
		return false
	}
	if f.Department != "" && a.Department != f.Department {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	for _, v := range []string{a.Name, a.Email, a.Department} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
