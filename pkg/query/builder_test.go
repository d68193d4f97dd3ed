package query_test

import (
	"strings"
	"testing"

	"github.com/docvault/docvault/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "widgets", "w").
		Project("id", "Id").
		Project("name", "Name").
		Project("owner_id", "OwnerId").
		Project("created_at", "CreatedAt").
		Project("pinned", "Pinned")
}

func TestBuildCount(t *testing.T) {
	b := query.NewBuilder(testProjection()).
		WhereEquals("OwnerId", "alice").
		WhereEquals("Pinned", true)

	sql, args := b.BuildCount()

	if !strings.HasPrefix(sql, "SELECT COUNT(*) FROM") {
		t.Errorf("unexpected prefix: %s", sql)
	}
	if !strings.Contains(sql, "w.owner_id = $1") || !strings.Contains(sql, "w.pinned = $2") {
		t.Errorf("parameter numbering wrong: %s", sql)
	}
	if len(args) != 2 || args[0] != "alice" || args[1] != true {
		t.Errorf("args = %v", args)
	}
}

func TestBuildPage(t *testing.T) {
	b := query.NewBuilder(testProjection(),
		query.SortField{Field: "Pinned", Descending: true},
		query.SortField{Field: "CreatedAt", Descending: true},
	).WhereEquals("OwnerId", "alice")

	sql, args := b.BuildPage(3, 20)

	if !strings.Contains(sql, "ORDER BY w.pinned DESC, w.created_at DESC") {
		t.Errorf("default sort missing: %s", sql)
	}
	if !strings.Contains(sql, "LIMIT 20 OFFSET 40") {
		t.Errorf("pagination wrong: %s", sql)
	}
	if len(args) != 1 {
		t.Errorf("args = %v", args)
	}
}

func TestOrderByFieldsOverridesDefault(t *testing.T) {
	b := query.NewBuilder(testProjection(),
		query.SortField{Field: "CreatedAt", Descending: true},
	).OrderByFields([]query.SortField{
		{Field: "Name"},
		{Field: "Bogus"},
	})

	sql, _ := b.BuildPage(1, 10)

	if !strings.Contains(sql, "ORDER BY w.name ASC") {
		t.Errorf("explicit sort missing: %s", sql)
	}
	if strings.Contains(sql, "created_at DESC") {
		t.Errorf("default sort not overridden: %s", sql)
	}
	if strings.Contains(sql, "Bogus") {
		t.Errorf("unknown field not ignored: %s", sql)
	}
}

func TestWhereContainsSkipsEmpty(t *testing.T) {
	empty := ""
	b := query.NewBuilder(testProjection()).
		WhereContains("Name", nil).
		WhereContains("Name", &empty)

	sql, args := b.BuildCount()

	if strings.Contains(sql, "WHERE") {
		t.Errorf("empty conditions produced a WHERE clause: %s", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v", args)
	}
}

func TestWhereContainsWrapsPattern(t *testing.T) {
	needle := "report"
	b := query.NewBuilder(testProjection()).WhereContains("Name", &needle)

	sql, args := b.BuildCount()

	if !strings.Contains(sql, "w.name ILIKE $1") {
		t.Errorf("ILIKE clause missing: %s", sql)
	}
	if len(args) != 1 || args[0] != "%report%" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildSingle(t *testing.T) {
	b := query.NewBuilder(testProjection()).WhereEquals("OwnerId", "alice")

	sql, args := b.BuildSingle("Id", "abc")

	if !strings.Contains(sql, "w.owner_id = $1") || !strings.Contains(sql, "w.id = $2") {
		t.Errorf("parameter numbering wrong: %s", sql)
	}
	if len(args) != 2 {
		t.Errorf("args = %v", args)
	}
}

func TestParseSortFields(t *testing.T) {
	fields := query.ParseSortFields("-created_at, name")

	if len(fields) != 2 {
		t.Fatalf("got %d fields", len(fields))
	}
	if fields[0].Field != "created_at" || !fields[0].Descending {
		t.Errorf("fields[0] = %+v", fields[0])
	}
	if fields[1].Field != "name" || fields[1].Descending {
		t.Errorf("fields[1] = %+v", fields[1])
	}
}
