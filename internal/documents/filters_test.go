package documents_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/pkg/query"
)

func TestFilterFromQuery(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    documents.ListFilter
		wantErr bool
	}{
		{"absent", "", documents.FilterDefault, false},
		{"favorites", "filter=favorites", documents.FilterFavorites, false},
		{"pinned", "filter=pinned", documents.FilterPinned, false},
		{"vault", "filter=vault", documents.FilterVault, false},
		{"trash", "filter=trash", documents.FilterTrash, false},
		{"unknown", "filter=archived", documents.FilterDefault, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}

			got, err := documents.FilterFromQuery(values)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FilterFromQuery: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func filterProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "documents", "d").
		Project("is_favorite", "IsFavorite").
		Project("is_pinned", "IsPinned").
		Project("is_vault", "IsVault").
		Project("is_trashed", "IsTrashed")
}

func TestFilterApply(t *testing.T) {
	tests := []struct {
		name        string
		filter      documents.ListFilter
		wantClause  string
		wantTrashed any
	}{
		{"default hides trashed", documents.FilterDefault, "d.is_trashed = $1", false},
		{"favorites hides trashed", documents.FilterFavorites, "d.is_favorite = $1", false},
		{"pinned hides trashed", documents.FilterPinned, "d.is_pinned = $1", false},
		{"vault hides trashed", documents.FilterVault, "d.is_vault = $1", false},
		{"trash shows only trashed", documents.FilterTrash, "d.is_trashed = $1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := query.NewBuilder(filterProjection())
			tt.filter.Apply(b)

			sql, args := b.BuildCount()

			if !strings.Contains(sql, tt.wantClause) {
				t.Errorf("clause %q missing from %s", tt.wantClause, sql)
			}
			if len(args) == 0 {
				t.Fatalf("no arguments bound: %s", sql)
			}
			if args[len(args)-1] != tt.wantTrashed {
				t.Errorf("trashed arg = %v, want %v", args[len(args)-1], tt.wantTrashed)
			}
		})
	}
}
