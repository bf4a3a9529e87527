package filter

import (
	"fmt"
	"regexp"

	"github.com/blnkfinance/tenantquery/internal/apierror"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ColumnType drives how raw driver values are normalized into records.
type ColumnType int

const (
	Text ColumnType = iota
	Integer
	Boolean
	Timestamp
	JSON
)

type Column struct {
	Name   string
	Type   ColumnType
	Hidden bool
}

type RelationKind int

const (
	// HasMany relations keep the foreign key on the target table.
	HasMany RelationKind = iota
	// BelongsTo relations keep the foreign key on the owning table.
	BelongsTo
)

type Relation struct {
	Name       string
	Target     string
	Kind       RelationKind
	ForeignKey string
}

type Entity struct {
	Name             string
	Table            string
	PrimaryKey       string
	Columns          []Column
	TenantColumn     string
	SoftDeleteColumn string
	Relations        []Relation

	columns   map[string]Column
	relations map[string]Relation
}

// Column looks up a column by name.
func (e *Entity) Column(name string) (Column, bool) {
	c, ok := e.columns[name]
	return c, ok
}

// Relation looks up a declared relation by property name.
func (e *Entity) Relation(name string) (Relation, error) {
	rel, ok := e.relations[name]
	if !ok {
		return Relation{}, apierror.NewAPIError(apierror.ErrUnknownRelation,
			fmt.Sprintf("unknown relation '%s' for %s", name, e.Name), nil)
	}
	return rel, nil
}

// visibleColumns returns the columns that may leave the database, in declaration order.
func (e *Entity) visibleColumns() []Column {
	out := make([]Column, 0, len(e.Columns))
	for _, c := range e.Columns {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// Registry is the static relation metadata consulted by the planner.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	entities map[string]*Entity
}

// NewRegistry indexes the entities and checks every identifier and relation target.
func NewRegistry(entities ...*Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}

	for _, e := range entities {
		if e == nil {
			continue
		}
		for _, ident := range []string{e.Name, e.Table, e.PrimaryKey} {
			if !identifierRegex.MatchString(ident) {
				return nil, fmt.Errorf("entity %q: invalid identifier %q", e.Name, ident)
			}
		}
		if _, dup := r.entities[e.Name]; dup {
			return nil, fmt.Errorf("entity %q registered twice", e.Name)
		}

		e.columns = make(map[string]Column, len(e.Columns))
		for _, c := range e.Columns {
			if !identifierRegex.MatchString(c.Name) {
				return nil, fmt.Errorf("entity %q: invalid column %q", e.Name, c.Name)
			}
			e.columns[c.Name] = c
		}
		if pk, ok := e.columns[e.PrimaryKey]; ok && pk.Hidden {
			return nil, fmt.Errorf("entity %q: primary key %q cannot be hidden", e.Name, e.PrimaryKey)
		}
		for _, name := range []string{e.PrimaryKey, e.TenantColumn, e.SoftDeleteColumn} {
			if name == "" {
				continue
			}
			if _, ok := e.columns[name]; !ok {
				return nil, fmt.Errorf("entity %q: column %q is not declared", e.Name, name)
			}
		}

		e.relations = make(map[string]Relation, len(e.Relations))
		for _, rel := range e.Relations {
			if !identifierRegex.MatchString(rel.Name) || !identifierRegex.MatchString(rel.ForeignKey) {
				return nil, fmt.Errorf("entity %q: invalid relation %q", e.Name, rel.Name)
			}
			e.relations[rel.Name] = rel
		}
		r.entities[e.Name] = e
	}

	for _, e := range r.entities {
		for _, rel := range e.Relations {
			target, ok := r.entities[rel.Target]
			if !ok {
				return nil, fmt.Errorf("entity %q: relation %q targets unknown entity %q", e.Name, rel.Name, rel.Target)
			}
			owner := e
			if rel.Kind == HasMany {
				owner = target
			}
			if _, ok := owner.columns[rel.ForeignKey]; !ok {
				return nil, fmt.Errorf("entity %q: relation %q foreign key %q is not a column of %s", e.Name, rel.Name, rel.ForeignKey, owner.Name)
			}
		}
	}

	return r, nil
}

// Entity returns the entity registered under name.
func (r *Registry) Entity(name string) (*Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, fmt.Sprintf("unknown entity '%s'", name), nil)
	}
	return e, nil
}

// Target resolves the entity a relation points at.
func (r *Registry) Target(rel Relation) (*Entity, error) {
	return r.Entity(rel.Target)
}
