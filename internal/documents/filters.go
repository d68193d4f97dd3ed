package documents

import (
	"fmt"
	"net/url"

	"github.com/docvault/docvault/pkg/query"
)

// ListFilter selects a document listing view. Trashed documents appear only
// in the trash view; every other view excludes them, including vault.
type ListFilter string

// Listing views.
const (
	FilterDefault   ListFilter = ""
	FilterFavorites ListFilter = "favorites"
	FilterPinned    ListFilter = "pinned"
	FilterVault     ListFilter = "vault"
	FilterTrash     ListFilter = "trash"
)

// FilterFromQuery extracts the listing filter from URL query parameters.
func FilterFromQuery(values url.Values) (ListFilter, error) {
	f := ListFilter(values.Get("filter"))
	switch f {
	case FilterDefault, FilterFavorites, FilterPinned, FilterVault, FilterTrash:
		return f, nil
	default:
		return FilterDefault, fmt.Errorf("unknown filter: %s", f)
	}
}

// Apply adds the view's conditions to the query builder.
func (f ListFilter) Apply(b *query.Builder) *query.Builder {
	switch f {
	case FilterFavorites:
		b.WhereEquals("IsFavorite", true).WhereEquals("IsTrashed", false)
	case FilterPinned:
		b.WhereEquals("IsPinned", true).WhereEquals("IsTrashed", false)
	case FilterVault:
		b.WhereEquals("IsVault", true).WhereEquals("IsTrashed", false)
	case FilterTrash:
		b.WhereEquals("IsTrashed", true)
	default:
		b.WhereEquals("IsTrashed", false)
	}
	return b
}
