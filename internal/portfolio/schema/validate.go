package schema

import (
	"fmt"
	"strings"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
)

// listSeparator joins list values into a single cell and splits them back.
const listSeparator = ", "

// ValidateInput checks user-supplied fields against a definition before any
// mutation. It is strict: unknown fields, missing required fields and
// mistyped values are all rejected, with one message per offending field so
// the caller can surface everything at once. On success it returns the typed,
// normalized field map.
func ValidateInput(def Definition, fields map[string]any) (map[string]any, error) {
	problems := make(map[string]string)
	out := make(map[string]any, len(fields))

	for name := range fields {
		if name == RecordIDField {
			problems[name] = "field is reserved"
			continue
		}
		if _, ok := def.FieldNamed(name); !ok {
			problems[name] = "unknown field"
		}
	}

	for _, f := range def.Fields {
		raw, present := fields[f.Name]
		if !present {
			if f.Required {
				problems[f.Name] = "field is required"
			}
			continue
		}

		value, err := coerce(f, raw)
		if err != nil {
			problems[f.Name] = err.Error()
			continue
		}
		if f.Required && isEmpty(value) {
			problems[f.Name] = "field is required"
			continue
		}
		out[f.Name] = value
	}

	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems)
	}
	return out, nil
}

func coerce(f Field, raw any) (any, error) {
	switch f.Kind {
	case KindText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return strings.TrimSpace(s), nil

	case KindFlag:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			// Form payloads post flags as strings.
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes", "1", "on":
				return true, nil
			case "false", "no", "0", "off", "":
				return false, nil
			}
		}
		return nil, fmt.Errorf("must be a boolean")

	case KindList:
		var items []string
		switch v := raw.(type) {
		case []string:
			items = v
		case []any:
			items = make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("must be a list of strings")
				}
				items = append(items, s)
			}
		default:
			return nil, fmt.Errorf("must be a list of strings")
		}
		out, err := listItems(items)
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported field kind %q", f.Kind)
}

// listItems trims and drops empty entries. Commas are rejected: list values
// share one cell joined by listSeparator, so an item containing a comma would
// read back as several items.
func listItems(items []string) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, ",") {
			return nil, fmt.Errorf("list items must not contain commas")
		}
		out = append(out, s)
	}
	return out, nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case []string:
		return len(x) == 0
	}
	return false
}

// NormalizeRow parses a raw sheet row (header name → cell) into typed fields.
// Read-path validation is soft: a cell that does not parse keeps its raw
// value and the problem is reported in the returned issues, so one bad
// historical cell never blanks a tenant's page.
func NormalizeRow(def Definition, raw map[string]string) (map[string]any, []string) {
	fields := make(map[string]any, len(def.Fields))
	var issues []string

	for _, f := range def.Fields {
		cell := raw[f.Name]

		if f.Required && strings.TrimSpace(cell) == "" {
			fields[f.Name] = cell
			issues = append(issues, fmt.Sprintf("%s: required field is empty", f.Name))
			continue
		}

		switch f.Kind {
		case KindText:
			fields[f.Name] = cell

		case KindFlag:
			v, ok := parseFlag(cell)
			if !ok {
				fields[f.Name] = cell
				issues = append(issues, fmt.Sprintf("%s: cannot parse %q as boolean", f.Name, cell))
				continue
			}
			fields[f.Name] = v

		case KindList:
			fields[f.Name] = SplitList(cell)
		}
	}

	return fields, issues
}

func parseFlag(cell string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0", "":
		return false, true
	}
	return false, false
}

// EncodeValue renders a typed field value into its sheet cell form.
func EncodeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case []string:
		return strings.Join(x, listSeparator)
	}
	return fmt.Sprint(v)
}

// SplitList is the inverse of EncodeValue for list cells.
func SplitList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return []string{}
	}
	parts := strings.Split(cell, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
