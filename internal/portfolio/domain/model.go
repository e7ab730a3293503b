package domain

// Record is one row of a section, owned by a single tenant. Fields hold the
// typed values (string, bool or []string per the section schema). A record
// that failed read-path validation is still returned with its raw values, and
// Issues lists what went wrong — callers decide whether degraded data is
// acceptable to render.
type Record struct {
	// ID is the server-assigned row identifier, generated at append time.
	ID string `json:"id,omitempty"`

	Fields map[string]any `json:"fields"`

	// Issues is non-empty when the record is degraded.
	Issues []string `json:"issues,omitempty"`
}

// Degraded reports whether the record failed schema validation on read.
func (r Record) Degraded() bool {
	return len(r.Issues) > 0
}

// CustomSection is a tenant-authored, schema-free addition to the portfolio
// layout. It lives entirely inside the profile row, serialized as JSON.
type CustomSection struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Type    string   `json:"type"` // "text", "list" or "cards"
	Visible bool     `json:"visible"`
	Content string   `json:"content,omitempty"`
	Items   []string `json:"items,omitempty"`
}

// Profile is the single-row-per-tenant identity and layout record. The PIN
// credential never leaves the store, so it is not part of this struct.
type Profile struct {
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	Headline    string `json:"headline,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Theme       string `json:"theme,omitempty"`
	AccentColor string `json:"accent_color,omitempty"`

	Public      bool `json:"public"`
	ShowContact bool `json:"show_contact"`
	DarkMode    bool `json:"dark_mode"`

	SectionOrder   []string        `json:"section_order,omitempty"`
	HiddenSections []string        `json:"hidden_sections,omitempty"`
	CustomSections []CustomSection `json:"custom_sections,omitempty"`

	// Issues is non-empty when the stored row failed validation and the
	// profile was assembled from raw values.
	Issues []string `json:"issues,omitempty"`
}

// PortfolioReadModel aggregates one tenant's profile with every section's
// records. Assembled fresh per read; each section list reflects the backend
// at the moment of its own call, so the aggregate is not a snapshot.
type PortfolioReadModel struct {
	Profile  *Profile            `json:"profile"`
	Sections map[string][]Record `json:"sections"`
}
