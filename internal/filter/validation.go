package filter

import (
	"fmt"
	"reflect"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/blnkfinance/tenantquery/internal/apierror"
)

// Pagination caps keep the computed offset inside uint64 on every platform.
const (
	MaxPage    = 1_000_000
	MaxPerPage = 1_000
)

// Normalize lower-cases conditions and upper-cases sort and group directions.
func (q *FilterQuery) Normalize() {
	q.FilterCondition = Condition(strings.ToLower(strings.TrimSpace(string(q.FilterCondition))))
	q.FilterNestedCondition = Condition(strings.ToLower(strings.TrimSpace(string(q.FilterNestedCondition))))
	q.StartAndEndCondition = Condition(strings.ToLower(strings.TrimSpace(string(q.StartAndEndCondition))))
	for i, s := range q.Sort {
		q.Sort[i] = SortDirection(strings.ToUpper(strings.TrimSpace(string(s))))
	}
	q.GroupSort = GroupSort(strings.ToUpper(strings.TrimSpace(string(q.GroupSort))))
}

// Validate checks the descriptor shape. It does not know about entities;
// column and relation names are checked while the query is planned.
func (q FilterQuery) Validate() error {
	grouping := len(q.GroupBy) > 0 || q.GroupSortBy != "" || q.GroupSort != ""

	err := validation.ValidateStruct(&q,
		validation.Field(&q.Filter, validation.By(sameLength(len(q.FilterBy), "filter_by"))),
		validation.Field(&q.FilterCondition, validation.In(ConditionAnd, ConditionOr)),
		validation.Field(&q.FilterNested, validation.By(sameLength(len(q.FilterNestedBy), "filter_nested_by"))),
		validation.Field(&q.FilterNestedCondition, validation.In(ConditionAnd, ConditionOr)),
		validation.Field(&q.StartAndEndCondition, validation.In(ConditionAnd, ConditionOr)),
		validation.Field(&q.StartBy, validation.When(q.Start != "", validation.Required)),
		validation.Field(&q.EndBy, validation.When(q.End != "", validation.Required)),
		validation.Field(&q.Sort,
			validation.By(sameLength(len(q.SortBy), "sort_by")),
			validation.Each(validation.In(SortAsc, SortDesc)),
		),
		validation.Field(&q.GroupBy, validation.When(grouping, validation.Required)),
		validation.Field(&q.GroupSortBy, validation.When(grouping, validation.Required)),
		validation.Field(&q.GroupSort,
			validation.When(grouping, validation.Required),
			validation.In(GroupMax, GroupMin),
		),
		validation.Field(&q.Page, validation.Max(MaxPage)),
		validation.Field(&q.PerPage, validation.Max(MaxPerPage)),
	)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "invalid filter query", err)
	}
	return nil
}

func sameLength(n int, other string) validation.RuleFunc {
	return func(value interface{}) error {
		v := reflect.ValueOf(value)
		if v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
		if v.Len() != n {
			return fmt.Errorf("must have the same length as %s (%d)", other, n)
		}
		return nil
	}
}

func validateIdentifier(name, value string) error {
	if value == "" || identifierRegex.MatchString(value) {
		return nil
	}
	return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("invalid %s '%s'", name, value), nil)
}

