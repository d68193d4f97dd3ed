package query

import "strings"

// SortField identifies a projection field and sort direction.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// ParseSortFields parses a comma-separated sort expression into sort fields.
// A "-" prefix marks a field as descending, e.g. "-CreatedAt,Filename".
func ParseSortFields(expr string) []SortField {
	if expr == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		descending := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(part, "-")
		if field == "" {
			continue
		}

		fields = append(fields, SortField{Field: field, Descending: descending})
	}

	return fields
}
