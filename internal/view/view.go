// Package view renders the HTML pages: the landing page, the registration
// form, the admin dashboard and the applicant detail page.
//
// All applicant text goes through html/template's contextual escaping.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/swayamsankar/intern-app/internal/applicant"
	"github.com/swayamsankar/intern-app/internal/db"
	"github.com/swayamsankar/intern-app/internal/query"
)

const (
	MsgNoApplications = "No applications submitted yet."
	MsgNoMatches      = "No applications match your current filters."
	MsgClickRow       = "Click on any row to view detailed information."

	PlaceholderPhone        = "Not provided"
	PlaceholderExperience   = "No experience provided"
	PlaceholderMotivation   = "No motivation provided"
	PlaceholderAvailability = "No availability information provided"
)

const dateLayout = "Jan 2, 2006, 03:04 PM"

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"home", "register", "admin", "detail", "error"}

type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"department": DepartmentLabel,
		"position":   PositionLabel,
		"date":       FormatDate,
		"selected":   func(a, b string) bool { return strings.EqualFold(a, b) },
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes page into w. Output is buffered so a template error never
// leaves a half-written page.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Page carries what the layout needs.
type Page struct {
	Title  string
	Active string
}

type Home struct {
	Page
}

type Register struct {
	Page
	MaxTextLength int
}

func NewRegister() Register {
	return Register{Page: Page{Title: "Apply", Active: "register"}, MaxTextLength: applicant.MaxTextLength}
}

type Option struct {
	Value string
	Label string
}

// Row is one line of the dashboard table.
type Row struct {
	ID           uint
	Name         string
	Email        string
	PositionType string
	BadgeClass   string
	Department   string
	Submitted    string
}

type Admin struct {
	Page
	Stats        applicant.Stats
	Filter       query.Filter
	Departments  []Option
	Rows         []Row
	EmptyMessage string
	Description  string
}

// NewAdmin builds the dashboard for the given listing. An empty listing
// without filters means the store itself is empty.
func NewAdmin(stats applicant.Stats, f query.Filter, list []db.Applicant, departments []string) Admin {
	f = f.Normalize()
	a := Admin{
		Page:   Page{Title: "Admin Dashboard", Active: "admin"},
		Stats:  stats,
		Filter: f,
		Rows:   make([]Row, 0, len(list)),
	}
	for _, d := range departments {
		a.Departments = append(a.Departments, Option{Value: d, Label: DepartmentLabel(d)})
	}
	for _, item := range list {
		a.Rows = append(a.Rows, newRow(item))
	}
	a.EmptyMessage, a.Description = EmptyState(f.IsEmpty(), len(list))
	return a
}

// EmptyState returns the empty-list message and the table description for
// a listing of count rows.
func EmptyState(unfiltered bool, count int) (empty, description string) {
	switch {
	case count > 0:
		return "", MsgClickRow
	case unfiltered:
		return MsgNoApplications, ""
	default:
		return MsgNoMatches, MsgNoMatches
	}
}

func newRow(a db.Applicant) Row {
	return Row{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PositionType: string(a.PositionType),
		BadgeClass:   badgeClass(a.PositionType),
		Department:   a.Department,
		Submitted:    FormatDate(a.SubmittedAt),
	}
}

// Detail is an applicant with every optional field resolved to its value or
// placeholder.
type Detail struct {
	Page
	Row
	Phone        string
	Experience   string
	Motivation   string
	Availability string
}

func NewDetail(a db.Applicant) Detail {
	return Detail{
		Page:         Page{Title: a.Name, Active: "admin"},
		Row:          newRow(a),
		Phone:        orPlaceholder(a.Phone, PlaceholderPhone),
		Experience:   orPlaceholder(a.Experience, PlaceholderExperience),
		Motivation:   orPlaceholder(a.Motivation, PlaceholderMotivation),
		Availability: orPlaceholder(a.Availability, PlaceholderAvailability),
	}
}

type Error struct {
	Page
	Status  int
	Message string
}

func NewError(status int, message string) Error {
	return Error{Page: Page{Title: message}, Status: status, Message: message}
}

func orPlaceholder(s *string, placeholder string) string {
	if s == nil || *s == "" {
		return placeholder
	}
	return *s
}

func badgeClass(p db.PositionType) string {
	if p == db.PositionIntern {
		return "badge-primary"
	}
	return "badge-secondary"
}

// DepartmentLabel turns a slug like "web-dev" into "Web dev".
func DepartmentLabel(slug string) string {
	return capitalize(strings.Replace(slug, "-", " ", 1))
}

func PositionLabel(p string) string {
	return capitalize(p)
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
