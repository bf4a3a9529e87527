package filter

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/blnkfinance/tenantquery/internal/apierror"
)

const excludePrefix = "!"

// partitionValues splits values into include values and exclude values, the
// latter stripped of their "!" prefix.
func partitionValues(values []string) (include, exclude []string) {
	for _, v := range values {
		if strings.HasPrefix(v, excludePrefix) {
			exclude = append(exclude, strings.TrimPrefix(v, excludePrefix))
			continue
		}
		include = append(include, v)
	}
	return include, exclude
}

// inNotIn renders col IN (include) AND col NOT IN (exclude), skipping empty halves.
func inNotIn(col string, include, exclude []string) sq.And {
	pred := sq.And{}
	if len(include) > 0 {
		pred = append(pred, sq.Eq{col: include})
	}
	if len(exclude) > 0 {
		pred = append(pred, sq.NotEq{col: exclude})
	}
	return pred
}

func combine(parts []sq.Sqlizer, cond Condition) sq.Sqlizer {
	switch {
	case len(parts) == 0:
		return nil
	case len(parts) == 1:
		return parts[0]
	case cond == ConditionOr:
		return sq.Or(parts)
	default:
		return sq.And(parts)
	}
}

func (c *planContext) basicFilter(q FilterQuery) (sq.Sqlizer, error) {
	var entries []sq.Sqlizer
	for i, spec := range q.FilterBy {
		include, exclude := partitionValues(q.Filter[i])
		if len(include) == 0 && len(exclude) == 0 {
			continue
		}
		col, err := c.column(spec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, inNotIn(col, include, exclude))
	}
	return combine(entries, q.FilterCondition), nil
}

type nestedTerm struct {
	relation Relation
	target   *Entity
	column   string
	values   []string
}

// nestedTerms resolves "relation.column" entries. Entries without a relation
// prefix fall back to the bound nested table.
func (c *planContext) nestedTerms(q FilterQuery) ([]nestedTerm, error) {
	var terms []nestedTerm
	for i, spec := range q.FilterNestedBy {
		relName, column, ok := strings.Cut(spec, ".")
		if !ok {
			relName, column = c.opts.NestedTable, spec
		}
		if relName == "" {
			return nil, apierror.NewAPIError(apierror.ErrUnknownRelation,
				fmt.Sprintf("nested filter '%s' does not name a relation", spec), nil)
		}
		rel, err := c.entity.Relation(relName)
		if err != nil {
			return nil, err
		}
		target, err := c.registry.Target(rel)
		if err != nil {
			return nil, err
		}
		if _, err := ResolveColumn(c.dialect, target, "", column); err != nil {
			return nil, err
		}
		if len(q.FilterNested[i]) == 0 {
			continue
		}
		terms = append(terms, nestedTerm{relation: rel, target: target, column: column, values: q.FilterNested[i]})
	}
	return terms, nil
}

func (c *planContext) nestedFilter(q FilterQuery) (sq.Sqlizer, error) {
	terms, err := c.nestedTerms(q)
	if err != nil || len(terms) == 0 {
		return nil, err
	}

	var clauses []sq.Sqlizer
	if q.FilterNestedCondition == ConditionOr {
		for _, t := range terms {
			alias := c.nextNestedAlias()
			col, err := ResolveColumn(c.dialect, t.target, alias, t.column)
			if err != nil {
				return nil, err
			}
			include, exclude := partitionValues(t.values)
			clause, err := c.exists(t.relation, t.target, alias, inNotIn(col, include, exclude))
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, clause)
		}
	} else {
		// One EXISTS per relation: every condition must hold on the same related row.
		var order []string
		grouped := make(map[string][]nestedTerm)
		for _, t := range terms {
			if _, ok := grouped[t.relation.Name]; !ok {
				order = append(order, t.relation.Name)
			}
			grouped[t.relation.Name] = append(grouped[t.relation.Name], t)
		}
		for _, name := range order {
			group := grouped[name]
			alias := c.nextNestedAlias()
			var conds []sq.Sqlizer
			for _, t := range group {
				col, err := ResolveColumn(c.dialect, t.target, alias, t.column)
				if err != nil {
					return nil, err
				}
				for _, v := range t.values {
					if strings.HasPrefix(v, excludePrefix) {
						conds = append(conds, sq.NotEq{col: strings.TrimPrefix(v, excludePrefix)})
						continue
					}
					conds = append(conds, sq.Eq{col: v})
				}
			}
			clause, err := c.exists(group[0].relation, group[0].target, alias, conds...)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, clause)
		}
	}

	c.distinct = true
	return combine(clauses, q.FilterNestedCondition), nil
}

// exists builds a correlated EXISTS over the relation's target table.
func (c *planContext) exists(rel Relation, target *Entity, alias string, conds ...sq.Sqlizer) (sq.Sqlizer, error) {
	sub := sq.Select("1").
		From(target.Table + " AS " + alias).
		Where(correlation(rel, c.entity, target, c.alias, alias))
	if target.SoftDeleteColumn != "" {
		sub = sub.Where(sq.Eq{qualify(alias, target.SoftDeleteColumn): nil})
	}
	for _, cond := range conds {
		sub = sub.Where(cond)
	}

	query, args, err := sub.ToSql()
	if err != nil {
		return nil, err
	}
	return sq.Expr("EXISTS ("+query+")", args...), nil
}

// correlation joins a related row to its owner row.
func correlation(rel Relation, owner, target *Entity, ownerAlias, targetAlias string) string {
	if rel.Kind == BelongsTo {
		return fmt.Sprintf("%s = %s", qualify(targetAlias, target.PrimaryKey), qualify(ownerAlias, rel.ForeignKey))
	}
	return fmt.Sprintf("%s = %s", qualify(targetAlias, rel.ForeignKey), qualify(ownerAlias, owner.PrimaryKey))
}

func (c *planContext) searchFilter(q FilterQuery) (sq.Sqlizer, error) {
	term := strings.TrimSpace(q.Search)
	if term == "" || len(q.SearchBy) == 0 {
		return nil, nil
	}

	likes := make(sq.Or, 0, len(q.SearchBy))
	for _, spec := range q.SearchBy {
		col, err := c.column(spec)
		if err != nil {
			return nil, err
		}
		likes = append(likes, sq.Like{col: "%" + term + "%"})
	}
	return likes, nil
}

func (c *planContext) rangeFilter(q FilterQuery) (sq.Sqlizer, error) {
	var bounds []sq.Sqlizer
	if q.StartBy != "" && q.Start != "" {
		col, err := c.column(q.StartBy)
		if err != nil {
			return nil, err
		}
		bounds = append(bounds, sq.GtOrEq{col: boundValue(c.dialect, q.Start)})
	}
	if q.EndBy != "" && q.End != "" {
		col, err := c.column(q.EndBy)
		if err != nil {
			return nil, err
		}
		bounds = append(bounds, sq.LtOrEq{col: boundValue(c.dialect, q.End)})
	}
	return combine(bounds, q.StartAndEndCondition), nil
}

// boundValue binds date-like bounds through the dialect and everything else verbatim.
func boundValue(d Dialect, value string) interface{} {
	if t, err := ParseDateTime(value); err == nil {
		return d.BindTime(t)
	}
	return value
}
