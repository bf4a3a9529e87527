package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const userColumns = "t1.id, t1.app_id, t1.status, t1.provider, t1.last_name, t1.meta, t1.created_at, t1.deleted_at"

func testEntities() []*Entity {
	return []*Entity{
		{
			Name:       "users",
			Table:      "users",
			PrimaryKey: "id",
			Columns: []Column{
				{Name: "id", Type: Integer},
				{Name: "app_id"},
				{Name: "status"},
				{Name: "provider"},
				{Name: "last_name"},
				{Name: "password", Hidden: true},
				{Name: "meta", Type: JSON},
				{Name: "created_at", Type: Timestamp},
				{Name: "deleted_at", Type: Timestamp},
			},
			TenantColumn:     "app_id",
			SoftDeleteColumn: "deleted_at",
			Relations: []Relation{
				{Name: "roles", Target: "roles", Kind: HasMany, ForeignKey: "user_id"},
				{Name: "profiles", Target: "profiles", Kind: HasMany, ForeignKey: "user_id"},
				{Name: "posts", Target: "posts", Kind: HasMany, ForeignKey: "user_id"},
			},
		},
		{
			Name:       "roles",
			Table:      "roles",
			PrimaryKey: "id",
			Columns: []Column{
				{Name: "id", Type: Integer},
				{Name: "user_id", Type: Integer},
				{Name: "name"},
				{Name: "scope"},
			},
		},
		{
			Name:       "profiles",
			Table:      "profiles",
			PrimaryKey: "id",
			Columns: []Column{
				{Name: "id", Type: Integer},
				{Name: "user_id", Type: Integer},
				{Name: "first_name"},
				{Name: "deleted_at", Type: Timestamp},
			},
			SoftDeleteColumn: "deleted_at",
			Relations: []Relation{
				{Name: "user", Target: "users", Kind: BelongsTo, ForeignKey: "user_id"},
			},
		},
		{
			Name:       "posts",
			Table:      "posts",
			PrimaryKey: "id",
			Columns: []Column{
				{Name: "id", Type: Integer},
				{Name: "app_id"},
				{Name: "user_id", Type: Integer},
				{Name: "title"},
				{Name: "created_at", Type: Timestamp},
			},
			TenantColumn: "app_id",
		},
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(testEntities()...)
	require.NoError(t, err)
	return r
}

func testPlanner(t *testing.T, d Dialect) *Planner {
	t.Helper()
	return NewPlanner(testRegistry(t), d)
}
