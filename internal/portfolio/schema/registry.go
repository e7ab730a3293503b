// Package schema is the registry of portfolio sections: which logical record
// kinds exist, which physical sheet each one lives in, and what shape its
// rows have. The set is closed and known at deploy time; tenants only vary
// the row population, never the structure.
package schema

import (
	"fmt"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
)

// Kind is the value type of a field cell.
type Kind string

const (
	KindText Kind = "text"
	KindFlag Kind = "flag"
	KindList Kind = "list"
)

// Reserved column names present in every sheet.
const (
	UsernameField = "username"
	RecordIDField = "record_id"
)

type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Definition binds a logical section to its physical sheet and field list.
type Definition struct {
	Section string
	Sheet   string
	Fields  []Field
}

// Headers returns the canonical header row: every field name in declaration
// order, then the hidden record-id column.
func (d Definition) Headers() []string {
	out := make([]string, 0, len(d.Fields)+1)
	for _, f := range d.Fields {
		out = append(out, f.Name)
	}
	return append(out, RecordIDField)
}

// FieldNamed looks a field up by name.
func (d Definition) FieldNamed(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func text(name string, required bool) Field { return Field{Name: name, Kind: KindText, Required: required} }
func flag(name string) Field                { return Field{Name: name, Kind: KindFlag} }
func list(name string, required bool) Field { return Field{Name: name, Kind: KindList, Required: required} }

// username is the tenant key column, first in every sheet.
func tenantKey() Field { return text(UsernameField, true) }

var sectionDefs = []Definition{
	{
		Section: "experience",
		Sheet:   "Experience",
		Fields: []Field{
			tenantKey(),
			text("title", true),
			text("company", true),
			text("location", false),
			text("start_date", false),
			text("end_date", false),
			flag("current"),
			text("description", false),
			list("highlights", false),
		},
	},
	{
		Section: "education",
		Sheet:   "Education",
		Fields: []Field{
			tenantKey(),
			text("institution", true),
			text("degree", true),
			text("field_of_study", false),
			text("start_year", false),
			text("end_year", false),
			text("gpa", false),
			list("honors", false),
		},
	},
	{
		Section: "projects",
		Sheet:   "Projects",
		Fields: []Field{
			tenantKey(),
			text("name", true),
			text("description", true),
			text("url", false),
			text("repo_url", false),
			list("technologies", false),
			flag("featured"),
		},
	},
	{
		Section: "skills",
		Sheet:   "Skills",
		Fields: []Field{
			tenantKey(),
			text("category", true),
			list("skills_list", true),
		},
	},
	{
		Section: "certifications",
		Sheet:   "Certifications",
		Fields: []Field{
			tenantKey(),
			text("name", true),
			text("issuer", true),
			text("issue_date", false),
			text("expiry_date", false),
			text("credential_id", false),
			text("credential_url", false),
		},
	},
	{
		Section: "achievements",
		Sheet:   "Achievements",
		Fields: []Field{
			tenantKey(),
			text("title", true),
			text("date", false),
			text("description", false),
		},
	},
	{
		Section: "publications",
		Sheet:   "Publications",
		Fields: []Field{
			tenantKey(),
			text("title", true),
			text("publisher", false),
			text("date", false),
			text("url", false),
			list("authors", false),
		},
	},
	{
		Section: "volunteer",
		Sheet:   "Volunteer",
		Fields: []Field{
			tenantKey(),
			text("organization", true),
			text("role", true),
			text("start_date", false),
			text("end_date", false),
			text("description", false),
		},
	},
	{
		Section: "languages",
		Sheet:   "Languages",
		Fields: []Field{
			tenantKey(),
			text("language", true),
			text("proficiency", true),
		},
	},
	{
		Section: "awards",
		Sheet:   "Awards",
		Fields: []Field{
			tenantKey(),
			text("title", true),
			text("issuer", false),
			text("date", false),
			text("description", false),
		},
	},
	{
		Section: "references",
		Sheet:   "References",
		Fields: []Field{
			tenantKey(),
			text("name", true),
			text("relationship", true),
			text("company", false),
			text("email", false),
			text("quote", false),
		},
	},
	{
		Section: "courses",
		Sheet:   "Courses",
		Fields: []Field{
			tenantKey(),
			text("title", true),
			text("provider", true),
			text("completion_date", false),
			text("certificate_url", false),
		},
	},
}

// profileDef is the single-row-per-tenant Users sheet. The pin column holds a
// bcrypt hash and is never exposed through read models.
var profileDef = Definition{
	Section: "profile",
	Sheet:   "Users",
	Fields: []Field{
		tenantKey(),
		text("pin", true),
		text("full_name", true),
		text("headline", false),
		text("bio", false),
		text("email", false),
		text("avatar_url", false),
		text("theme", false),
		text("accent_color", false),
		flag("public"),
		flag("show_contact"),
		flag("dark_mode"),
		list("section_order", false),
		list("hidden_sections", false),
		text("custom_sections", false),
	},
}

// Registry resolves logical section names to their definitions. Populated
// once at startup from the static table above.
type Registry struct {
	defs  map[string]Definition
	order []string
}

func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition, len(sectionDefs))}
	for _, def := range sectionDefs {
		r.defs[def.Section] = def
		r.order = append(r.order, def.Section)
	}
	return r
}

// Lookup returns the definition for a logical section name, or
// domain.ErrInvalidSection for anything outside the registry.
func (r *Registry) Lookup(section string) (Definition, error) {
	def, ok := r.defs[section]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", domain.ErrInvalidSection, section)
	}
	return def, nil
}

// Sections returns every registered section name in declaration order.
func (r *Registry) Sections() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ProfileDefinition returns the Users sheet definition. It is addressed
// separately from the section registry because profiles have their own store.
func ProfileDefinition() Definition {
	return profileDef
}
