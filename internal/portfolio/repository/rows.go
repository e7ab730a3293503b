package repository

import (
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/schema"
)

// rowMap zips a header row with a data row. Sheets trim trailing empty
// cells, so short rows are padded with empty strings implicitly.
func rowMap(header, row []string) map[string]string {
	m := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(row) {
			m[name] = row[i]
		} else {
			m[name] = ""
		}
	}
	return m
}

// encodeRow renders typed fields into cells following the sheet's actual
// header order, which may differ from the canonical one after header repair.
func encodeRow(header []string, fields map[string]any, recordID string) []string {
	row := make([]string, len(header))
	for i, name := range header {
		if name == schema.RecordIDField {
			row[i] = recordID
			continue
		}
		if v, ok := fields[name]; ok {
			row[i] = schema.EncodeValue(v)
		}
	}
	return row
}

// hasRecordID reports whether any data row carries the given record id.
func hasRecordID(rows [][]string, id string) bool {
	if id == "" || len(rows) == 0 {
		return false
	}
	col := -1
	for i, name := range rows[0] {
		if name == schema.RecordIDField {
			col = i
			break
		}
	}
	if col < 0 {
		return false
	}
	for _, row := range rows[1:] {
		if col < len(row) && row[col] == id {
			return true
		}
	}
	return false
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	return out
}
