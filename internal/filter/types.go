package filter

import (
	"encoding/json"
)

// Condition combines sibling predicates.
type Condition string

const (
	ConditionAnd Condition = "and"
	ConditionOr  Condition = "or"
)

// SortDirection represents the sort direction of one sort key.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// GroupSort picks which extreme row survives per group.
type GroupSort string

const (
	GroupMax GroupSort = "MAX"
	GroupMin GroupSort = "MIN"
)

// FilterQuery is the client supplied descriptor consumed by the planner.
// Parallel arrays pair by index: FilterBy[i] with Filter[i], FilterNestedBy[i]
// with FilterNested[i] and SortBy[i] with Sort[i].
type FilterQuery struct {
	FilterBy        []string   `json:"filter_by,omitempty"`
	Filter          [][]string `json:"filter,omitempty"`
	FilterCondition Condition  `json:"filter_condition,omitempty"`

	FilterNestedBy        []string   `json:"filter_nested_by,omitempty"`
	FilterNested          [][]string `json:"filter_nested,omitempty"`
	FilterNestedCondition Condition  `json:"filter_nested_condition,omitempty"`

	SearchBy []string `json:"search_by,omitempty"`
	Search   string   `json:"search,omitempty"`

	StartBy              string    `json:"start_by,omitempty"`
	Start                string    `json:"start,omitempty"`
	EndBy                string    `json:"end_by,omitempty"`
	End                  string    `json:"end,omitempty"`
	StartAndEndCondition Condition `json:"start_and_end_condition,omitempty"`

	SortBy []string        `json:"sort_by,omitempty"`
	Sort   []SortDirection `json:"sort,omitempty"`

	GroupBy     []string  `json:"group_by,omitempty"`
	GroupSortBy string    `json:"group_sort_by,omitempty"`
	GroupSort   GroupSort `json:"group_sort,omitempty"`

	Page    int `json:"page,omitempty"`
	PerPage int `json:"per_page,omitempty"`
}

// QueryOptions binds a FilterQuery to an entity.
type QueryOptions struct {
	// TableAlias names the root table in every generated fragment. Defaults to t1.
	TableAlias string
	// Preload lists relations to eager load with the page.
	Preload []string
	// ParentTable is the belongs-to relation that owns the tenant column.
	ParentTable string
	// NestedTable is the relation used by nested filters that carry no relation prefix.
	NestedTable string
	// AppID scopes rows on the entity's own tenant column.
	AppID bool
	// WithParentAppID scopes rows through an inner join to ParentTable.
	WithParentAppID bool
}

const defaultTableAlias = "t1"

func (o QueryOptions) alias() string {
	if o.TableAlias == "" {
		return defaultTableAlias
	}
	return o.TableAlias
}

// Scoped reports whether the binding requires a tenant id.
func (o QueryOptions) Scoped() bool {
	return o.AppID || o.WithParentAppID || o.ParentTable != ""
}

// Record is one materialized row. Preloaded relations are attached under the
// relation name.
type Record map[string]interface{}

// Result is the outcome of an advance filter call.
type Result struct {
	Data      []Record `json:"data"`
	Total     int64    `json:"total"`
	TotalPage int64    `json:"total_page"`
}

// Decode converts the records into typed values, v must be a pointer to a slice.
func (r *Result) Decode(v interface{}) error {
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Decode converts a single record into a typed value.
func (r Record) Decode(v interface{}) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// TotalPages returns ceil(total / perPage) treating a non positive perPage as 1.
func TotalPages(total int64, perPage int) int64 {
	if perPage < 1 {
		perPage = 1
	}
	size := int64(perPage)
	return (total + size - 1) / size
}

type ParseOptions struct {
	MaxFilters  int // default 20
	MaxInValues int // default 100
	MaxCharLen  int // default 256
}

type ParseError struct {
	Param   string
	Message string
}

type ParseResult struct {
	Query  *FilterQuery
	Errors []ParseError
}
