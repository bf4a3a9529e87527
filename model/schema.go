package model

import (
	"github.com/blnkfinance/tenantquery/internal/filter"
)

const (
	EntityUsers    = "users"
	EntityProfiles = "profiles"
	EntityAddress  = "address"
)

func timestamps() []filter.Column {
	return []filter.Column{
		{Name: "created_at", Type: filter.Timestamp},
		{Name: "updated_at", Type: filter.Timestamp},
		{Name: "deleted_at", Type: filter.Timestamp},
	}
}

// Schema declares the entities and their relations. Each call returns fresh
// values so registries never share state.
func Schema() []*filter.Entity {
	users := &filter.Entity{
		Name:       EntityUsers,
		Table:      "users",
		PrimaryKey: "id",
		Columns: append([]filter.Column{
			{Name: "id", Type: filter.Integer},
			{Name: "app_id"},
			{Name: "username"},
			{Name: "password", Hidden: true},
			{Name: "first_login", Type: filter.Boolean},
			{Name: "last_active", Type: filter.Timestamp},
			{Name: "provider"},
			{Name: "meta", Type: filter.JSON},
		}, timestamps()...),
		TenantColumn:     "app_id",
		SoftDeleteColumn: "deleted_at",
		Relations: []filter.Relation{
			{Name: "profiles", Target: EntityProfiles, Kind: filter.HasMany, ForeignKey: "user_id"},
			{Name: "address", Target: EntityAddress, Kind: filter.HasMany, ForeignKey: "user_id"},
		},
	}

	profiles := &filter.Entity{
		Name:       EntityProfiles,
		Table:      "profiles",
		PrimaryKey: "id",
		Columns: append([]filter.Column{
			{Name: "id", Type: filter.Integer},
			{Name: "user_id", Type: filter.Integer},
			{Name: "national_id"},
			{Name: "first_name"},
			{Name: "last_name"},
			{Name: "email"},
			{Name: "phone_number"},
			{Name: "image"},
			{Name: "meta", Type: filter.JSON},
		}, timestamps()...),
		SoftDeleteColumn: "deleted_at",
		Relations: []filter.Relation{
			{Name: "user", Target: EntityUsers, Kind: filter.BelongsTo, ForeignKey: "user_id"},
		},
	}

	address := &filter.Entity{
		Name:       EntityAddress,
		Table:      "address",
		PrimaryKey: "id",
		Columns: append([]filter.Column{
			{Name: "id", Type: filter.Integer},
			{Name: "user_id", Type: filter.Integer},
			{Name: "name"},
			{Name: "address_one"},
			{Name: "address_two"},
			{Name: "phone_number"},
			{Name: "sub_district"},
			{Name: "district"},
			{Name: "province"},
			{Name: "country"},
			{Name: "zip_code"},
		}, timestamps()...),
		SoftDeleteColumn: "deleted_at",
		Relations: []filter.Relation{
			{Name: "user", Target: EntityUsers, Kind: filter.BelongsTo, ForeignKey: "user_id"},
		},
	}

	return []*filter.Entity{users, profiles, address}
}

// NewRegistry builds the relation registry for Schema.
func NewRegistry() (*filter.Registry, error) {
	return filter.NewRegistry(Schema()...)
}

// QueryOptions returns the binding each entity is filtered with.
func QueryOptions(entity string) (filter.QueryOptions, bool) {
	switch entity {
	case EntityUsers:
		return filter.QueryOptions{
			AppID:       true,
			Preload:     []string{"profiles", "address"},
			NestedTable: "profiles",
		}, true
	case EntityProfiles:
		return filter.QueryOptions{
			ParentTable:     "user",
			WithParentAppID: true,
			NestedTable:     "user",
		}, true
	case EntityAddress:
		return filter.QueryOptions{
			ParentTable:     "user",
			WithParentAppID: true,
			NestedTable:     "user",
		}, true
	default:
		return filter.QueryOptions{}, false
	}
}

// LookupOptions returns the binding used to load a single entity by id.
func LookupOptions(entity string) (filter.QueryOptions, bool) {
	opts, ok := QueryOptions(entity)
	if ok && entity != EntityUsers {
		opts.Preload = []string{"user"}
	}
	return opts, ok
}
