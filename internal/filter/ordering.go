package filter

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const (
	sortProjectionPrefix = "_sort_"
	groupInnerAlias      = "g_inner"
	groupJoinAlias       = "g_extreme"
)

// orderTerm keeps a sort key in two shapes: as written against the root
// select, and as written against the derived table that wraps it for preloads.
type orderTerm struct {
	inner string
	outer string
}

// sortKeys plans ORDER BY in array order. JSON paths are projected under a
// unique computed name and ordered by that name.
func (c *planContext) sortKeys(q FilterQuery) ([]orderTerm, []string, error) {
	var (
		terms       []orderTerm
		projections []string
	)
	for i, spec := range q.SortBy {
		dir := SortAsc
		if i < len(q.Sort) && q.Sort[i] != "" {
			dir = q.Sort[i]
		}

		col, err := c.column(spec)
		if err != nil {
			return nil, nil, err
		}

		if isJSONPath(spec) {
			name := fmt.Sprintf("%s%d", sortProjectionPrefix, i)
			projections = append(projections, col+" AS "+name)
			terms = append(terms, orderTerm{
				inner: fmt.Sprintf("%s %s", name, dir),
				outer: fmt.Sprintf("%s %s", qualify(c.alias, name), dir),
			})
			continue
		}

		term := fmt.Sprintf("%s %s", col, dir)
		terms = append(terms, orderTerm{inner: term, outer: term})
	}
	return terms, projections, nil
}

// groupJoin builds the INNER JOIN that keeps only the MAX/MIN row of each
// group_by combination.
func (c *planContext) groupJoin(q FilterQuery) (string, []interface{}, error) {
	if len(q.GroupBy) == 0 {
		return "", nil, nil
	}

	var selects, groupExprs, on []string
	for i, spec := range q.GroupBy {
		inner, err := ResolveColumn(c.dialect, c.entity, groupInnerAlias, spec)
		if err != nil {
			return "", nil, err
		}
		outer, err := c.column(spec)
		if err != nil {
			return "", nil, err
		}
		name := fmt.Sprintf("gk_%d", i)
		selects = append(selects, inner+" AS "+name)
		groupExprs = append(groupExprs, inner)
		on = append(on, fmt.Sprintf("%s = %s.%s", outer, groupJoinAlias, name))
	}

	sortInner, err := ResolveColumn(c.dialect, c.entity, groupInnerAlias, q.GroupSortBy)
	if err != nil {
		return "", nil, err
	}
	sortOuter, err := c.column(q.GroupSortBy)
	if err != nil {
		return "", nil, err
	}
	selects = append(selects, fmt.Sprintf("%s(%s) AS gm", q.GroupSort, sortInner))
	on = append(on, fmt.Sprintf("%s = %s.gm", sortOuter, groupJoinAlias))

	sub := sq.Select(selects...).From(c.entity.Table + " AS " + groupInnerAlias)
	sub, err = c.scope(sub, groupInnerAlias)
	if err != nil {
		return "", nil, err
	}
	sub = sub.GroupBy(groupExprs...)

	query, args, err := sub.ToSql()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("INNER JOIN (%s) AS %s ON %s", query, groupJoinAlias, strings.Join(on, " AND ")), args, nil
}
