package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blnkfinance/tenantquery/internal/apierror"
)

var jsonKeyRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ResolveColumn turns a client column reference into a SQL fragment on alias.
// "col" becomes alias.col and "jsonCol.field" becomes the dialect's unquoted
// JSON extraction. Every name is checked against the entity before it is
// interpolated. Filter, search, range, sort and group all resolve through here.
func ResolveColumn(d Dialect, e *Entity, alias, spec string) (string, error) {
	name, field, isJSON := strings.Cut(spec, ".")

	col, ok := e.Column(name)
	if !ok || col.Hidden {
		return "", apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("invalid field '%s' for %s", spec, e.Name), nil)
	}

	expr := qualify(alias, col.Name)
	if !isJSON {
		return expr, nil
	}

	if col.Type != JSON {
		return "", apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("field '%s' is not a JSON column of %s", name, e.Name), nil)
	}
	if !jsonKeyRegex.MatchString(field) {
		return "", apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("invalid JSON key '%s' in field '%s': must match pattern ^[a-zA-Z][a-zA-Z0-9_]*$", field, spec), nil)
	}
	return d.JSONText(expr, field), nil
}

func qualify(alias, column string) string {
	if alias == "" {
		return column
	}
	return alias + "." + column
}

func isJSONPath(spec string) bool {
	return strings.Contains(spec, ".")
}
