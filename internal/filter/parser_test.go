package filter

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/tenantquery/internal/apierror"
)

func TestParseFromQuery(t *testing.T) {
	params, err := url.ParseQuery("filter_by=status&filter=active,!banned&filter_by=provider&filter=google" +
		"&filter_condition=or&filter_nested_by=roles.name&filter_nested=admin" +
		"&search=smith&search_by=last_name,meta.nickname" +
		"&start_by=created_at&start=2024-01-01&end_by=created_at&end=2024-01-31" +
		"&sort_by=created_at&sort=desc&group_by=user_id&group_sort_by=created_at&group_sort=max" +
		"&page=2&per_page=10")
	require.NoError(t, err)

	result := ParseFromQuery(params, nil)
	require.NoError(t, result.Err())

	q := result.Query
	assert.Equal(t, []string{"status", "provider"}, q.FilterBy)
	assert.Equal(t, [][]string{{"active", "!banned"}, {"google"}}, q.Filter)
	assert.Equal(t, ConditionOr, q.FilterCondition)
	assert.Equal(t, []string{"roles.name"}, q.FilterNestedBy)
	assert.Equal(t, [][]string{{"admin"}}, q.FilterNested)
	assert.Equal(t, "smith", q.Search)
	assert.Equal(t, []string{"last_name", "meta.nickname"}, q.SearchBy)
	assert.Equal(t, "created_at", q.StartBy)
	assert.Equal(t, "2024-01-31", q.End)
	assert.Equal(t, []SortDirection{"desc"}, q.Sort)
	assert.Equal(t, []string{"user_id"}, q.GroupBy)
	assert.Equal(t, GroupSort("max"), q.GroupSort)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 10, q.PerPage)

	plan, err := testPlanner(t, Postgres).Plan("users", *q, QueryOptions{AppID: true}, "app-1")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(err))
	assert.Nil(t, plan)
}

func TestParseFromQuery_Limits(t *testing.T) {
	params := url.Values{
		"filter_by": {"status", "provider", "last_name"},
		"filter":    {"a,b,c,d", "x", strings.Repeat("y", 50)},
		"page":      {"two"},
	}

	result := ParseFromQuery(params, &ParseOptions{MaxFilters: 2, MaxInValues: 3, MaxCharLen: 20})
	require.Len(t, result.Errors, 4)

	byParam := map[string]int{}
	for _, e := range result.Errors {
		byParam[e.Param]++
	}
	assert.Equal(t, 2, byParam["filter"])
	assert.Equal(t, 1, byParam["filter_by"])
	assert.Equal(t, 1, byParam["page"])

	err := result.Err()
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(err))
}
