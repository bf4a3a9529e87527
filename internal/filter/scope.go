package filter

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/blnkfinance/tenantquery/internal/apierror"
)

// scope attaches the tenant guard and the soft delete guard to a select over
// the bound entity aliased as alias. It runs before any caller predicate.
func (c *planContext) scope(b sq.SelectBuilder, alias string) (sq.SelectBuilder, error) {
	switch {
	case c.opts.AppID:
		if c.entity.TenantColumn == "" {
			return b, apierror.NewAPIError(apierror.ErrBadRequest,
				fmt.Sprintf("%s has no tenant column", c.entity.Name), nil)
		}
		b = b.Where(sq.Eq{qualify(alias, c.entity.TenantColumn): c.appID})

	case c.opts.WithParentAppID || c.opts.ParentTable != "":
		join, err := c.parentJoin(alias)
		if err != nil {
			return b, err
		}
		b = b.InnerJoin(join, c.appID)
	}

	if c.entity.SoftDeleteColumn != "" {
		b = b.Where(sq.Eq{qualify(alias, c.entity.SoftDeleteColumn): nil})
	}
	return b, nil
}

// parentJoin renders the inner join to the tenant owning parent. The tenant
// predicate sits in the join condition so rows without a qualifying parent drop out.
func (c *planContext) parentJoin(alias string) (string, error) {
	if c.opts.ParentTable == "" {
		return "", apierror.NewAPIError(apierror.ErrBadRequest,
			fmt.Sprintf("%s: parent scoping requires a parent table", c.entity.Name), nil)
	}
	rel, err := c.entity.Relation(c.opts.ParentTable)
	if err != nil {
		return "", err
	}
	if rel.Kind != BelongsTo {
		return "", apierror.NewAPIError(apierror.ErrBadRequest,
			fmt.Sprintf("%s: parent relation '%s' must be a belongs-to relation", c.entity.Name, rel.Name), nil)
	}
	parent, err := c.registry.Target(rel)
	if err != nil {
		return "", err
	}
	if parent.TenantColumn == "" {
		return "", apierror.NewAPIError(apierror.ErrBadRequest,
			fmt.Sprintf("%s has no tenant column", parent.Name), nil)
	}

	pa := alias + "_" + rel.Name
	join := fmt.Sprintf("%s AS %s ON %s AND %s = ?",
		parent.Table, pa,
		correlation(rel, c.entity, parent, alias, pa),
		qualify(pa, parent.TenantColumn))
	if parent.SoftDeleteColumn != "" {
		join += fmt.Sprintf(" AND %s IS NULL", qualify(pa, parent.SoftDeleteColumn))
	}
	return join, nil
}
