package filter

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/blnkfinance/tenantquery/internal/apierror"
)

// Planner turns descriptors into count and page statements. It holds only
// immutable metadata and is safe for concurrent use.
type Planner struct {
	registry *Registry
	dialect  Dialect
}

func NewPlanner(registry *Registry, dialect Dialect) *Planner {
	return &Planner{registry: registry, dialect: dialect}
}

func (p *Planner) Registry() *Registry { return p.registry }

func (p *Planner) Dialect() Dialect { return p.dialect }

// Preload describes one eager loaded relation of a plan.
type Preload struct {
	Relation Relation
	Target   *Entity
	Alias    string
}

// Plan holds the statements for one advance filter call.
type Plan struct {
	Entity   *Entity
	Alias    string
	Preloads []Preload
	Page     int
	PerPage  int

	dialect Dialect
	count   sq.SelectBuilder
	data    sq.SelectBuilder
}

// Paginated reports whether LIMIT/OFFSET were applied.
func (p *Plan) Paginated() bool {
	return p.Page >= 1 && p.PerPage >= 1
}

// CountSQL renders the count over the filtered, unpaginated query.
func (p *Plan) CountSQL() (string, []interface{}, error) {
	return p.count.PlaceholderFormat(p.dialect.Placeholder()).ToSql()
}

// DataSQL renders the page query, including preload joins.
func (p *Plan) DataSQL() (string, []interface{}, error) {
	return p.data.PlaceholderFormat(p.dialect.Placeholder()).ToSql()
}

// planContext is the per call state of the planner. It is never shared.
type planContext struct {
	dialect  Dialect
	registry *Registry
	entity   *Entity
	alias    string
	opts     QueryOptions
	appID    string

	distinct  bool
	nestedSeq int
}

func (p *Planner) newContext(entityName string, opts QueryOptions, appID string) (*planContext, error) {
	entity, err := p.registry.Entity(entityName)
	if err != nil {
		return nil, err
	}
	if err := validateIdentifier("table alias", opts.TableAlias); err != nil {
		return nil, err
	}
	if opts.Scoped() && appID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthorized, "application id is required", nil)
	}
	return &planContext{
		dialect:  p.dialect,
		registry: p.registry,
		entity:   entity,
		alias:    opts.alias(),
		opts:     opts,
		appID:    appID,
	}, nil
}

func (c *planContext) column(spec string) (string, error) {
	return ResolveColumn(c.dialect, c.entity, c.alias, spec)
}

func (c *planContext) nextNestedAlias() string {
	c.nestedSeq++
	return fmt.Sprintf("n%d", c.nestedSeq)
}

// base selects the visible columns of the bound entity.
func (c *planContext) base() sq.SelectBuilder {
	visible := c.entity.visibleColumns()
	cols := make([]string, 0, len(visible))
	for _, col := range visible {
		cols = append(cols, qualify(c.alias, col.Name))
	}
	return sq.Select(cols...).From(c.entity.Table + " AS " + c.alias)
}

func (c *planContext) preloads() ([]Preload, error) {
	out := make([]Preload, 0, len(c.opts.Preload))
	for _, name := range c.opts.Preload {
		rel, err := c.entity.Relation(name)
		if err != nil {
			return nil, err
		}
		target, err := c.registry.Target(rel)
		if err != nil {
			return nil, err
		}
		out = append(out, Preload{Relation: rel, Target: target, Alias: "r_" + rel.Name})
	}
	return out, nil
}

// withPreloads wraps the root select in a derived table under the root alias
// and left joins every preload onto it, so LIMIT applies to root rows only.
func (c *planContext) withPreloads(root sq.SelectBuilder, preloads []Preload, order []orderTerm) sq.SelectBuilder {
	var cols []string
	for _, col := range c.entity.visibleColumns() {
		cols = append(cols, qualify(c.alias, col.Name))
	}
	for _, pl := range preloads {
		for _, col := range pl.Target.visibleColumns() {
			cols = append(cols, fmt.Sprintf("%s AS %s__%s", qualify(pl.Alias, col.Name), pl.Relation.Name, col.Name))
		}
	}

	b := sq.Select(cols...).FromSelect(root, c.alias)
	for _, pl := range preloads {
		on := correlation(pl.Relation, c.entity, pl.Target, c.alias, pl.Alias)
		if pl.Target.SoftDeleteColumn != "" {
			on += fmt.Sprintf(" AND %s IS NULL", qualify(pl.Alias, pl.Target.SoftDeleteColumn))
		}
		b = b.LeftJoin(fmt.Sprintf("%s AS %s ON %s", pl.Target.Table, pl.Alias, on))
	}
	for _, o := range order {
		b = b.OrderBy(o.outer)
	}
	return b
}

// Plan builds the statements for q bound to entityName. The tenant guard is
// applied first, then basic, nested, search and range predicates, then sort
// and the group join. Pagination is attached last.
func (p *Planner) Plan(entityName string, q FilterQuery, opts QueryOptions, appID string) (*Plan, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	c, err := p.newContext(entityName, opts, appID)
	if err != nil {
		return nil, err
	}
	preloads, err := c.preloads()
	if err != nil {
		return nil, err
	}

	root, err := c.scope(c.base(), c.alias)
	if err != nil {
		return nil, err
	}

	for _, build := range []func(FilterQuery) (sq.Sqlizer, error){
		c.basicFilter,
		c.nestedFilter,
		c.searchFilter,
		c.rangeFilter,
	} {
		pred, err := build(q)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			root = root.Where(pred)
		}
	}

	order, projections, err := c.sortKeys(q)
	if err != nil {
		return nil, err
	}

	join, joinArgs, err := c.groupJoin(q)
	if err != nil {
		return nil, err
	}
	if join != "" {
		root = root.JoinClause(join, joinArgs...)
	}

	if c.distinct {
		root = root.Distinct()
	}

	count := sq.Select("COUNT(*)").FromSelect(root, "counted")

	page := root.Columns(projections...)
	for _, o := range order {
		page = page.OrderBy(o.inner)
	}

	plan := &Plan{
		Entity:   c.entity,
		Alias:    c.alias,
		Preloads: preloads,
		Page:     q.Page,
		PerPage:  q.PerPage,
		dialect:  p.dialect,
		count:    count,
	}
	if plan.Paginated() {
		page = page.Limit(uint64(q.PerPage)).Offset(uint64(q.Page-1) * uint64(q.PerPage))
	}

	plan.data = page
	if len(preloads) > 0 {
		plan.data = c.withPreloads(page, preloads, order)
	}
	return plan, nil
}

// Lookup builds a single row plan by primary key with the same scoping and
// preloads as Plan.
func (p *Planner) Lookup(entityName string, opts QueryOptions, appID string, id interface{}) (*Plan, error) {
	c, err := p.newContext(entityName, opts, appID)
	if err != nil {
		return nil, err
	}
	preloads, err := c.preloads()
	if err != nil {
		return nil, err
	}

	root, err := c.scope(c.base(), c.alias)
	if err != nil {
		return nil, err
	}
	root = root.Where(sq.Eq{qualify(c.alias, c.entity.PrimaryKey): id}).Limit(1)

	plan := &Plan{
		Entity:   c.entity,
		Alias:    c.alias,
		Preloads: preloads,
		dialect:  p.dialect,
		data:     root,
	}
	if len(preloads) > 0 {
		plan.data = c.withPreloads(root, preloads, nil)
	}
	return plan, nil
}
