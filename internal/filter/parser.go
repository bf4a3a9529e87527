package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/blnkfinance/tenantquery/internal/apierror"
)

const (
	defaultMaxFilters  = 20
	defaultMaxInValues = 100
	defaultMaxCharLen  = 256
)

// ParseFromQuery parses URL query parameters into a FilterQuery.
// Paired keys are matched by position: the n-th filter_by goes with the n-th
// filter. Value lists are comma separated. Returns errors for invalid params
// rather than silently dropping them.
func ParseFromQuery(queryParams url.Values, opts *ParseOptions) *ParseResult {
	maxFilters := defaultMaxFilters
	maxInValues := defaultMaxInValues
	maxCharLen := defaultMaxCharLen

	if opts != nil {
		if opts.MaxFilters > 0 {
			maxFilters = opts.MaxFilters
		}
		if opts.MaxInValues > 0 {
			maxInValues = opts.MaxInValues
		}
		if opts.MaxCharLen > 0 {
			maxCharLen = opts.MaxCharLen
		}
	}

	p := &queryParser{params: queryParams, maxInValues: maxInValues, maxCharLen: maxCharLen}
	q := &FilterQuery{
		FilterBy:              p.list("filter_by"),
		Filter:                p.valueLists("filter"),
		FilterCondition:       Condition(p.single("filter_condition")),
		FilterNestedBy:        p.list("filter_nested_by"),
		FilterNested:          p.valueLists("filter_nested"),
		FilterNestedCondition: Condition(p.single("filter_nested_condition")),
		SearchBy:              p.list("search_by"),
		Search:                p.single("search"),
		StartBy:               p.single("start_by"),
		Start:                 p.single("start"),
		EndBy:                 p.single("end_by"),
		End:                   p.single("end"),
		StartAndEndCondition:  Condition(p.single("start_and_end_condition")),
		SortBy:                p.list("sort_by"),
		GroupBy:               p.list("group_by"),
		GroupSortBy:           p.single("group_sort_by"),
		GroupSort:             GroupSort(p.single("group_sort")),
		Page:                  p.integer("page"),
		PerPage:               p.integer("per_page"),
	}
	for _, s := range p.list("sort") {
		q.Sort = append(q.Sort, SortDirection(s))
	}

	if n := len(q.FilterBy) + len(q.FilterNestedBy); n > maxFilters {
		p.fail("filter_by", fmt.Sprintf("exceeded maximum number of filters (%d)", maxFilters))
	}

	return &ParseResult{Query: q, Errors: p.errors}
}

// Err folds the parse errors into a single invalid input error.
func (r *ParseResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	details := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		details[e.Param] = e.Message
	}
	return apierror.NewAPIError(apierror.ErrInvalidInput, "invalid query parameters", details)
}

type queryParser struct {
	params      url.Values
	maxInValues int
	maxCharLen  int
	errors      []ParseError
}

func (p *queryParser) fail(param, message string) {
	p.errors = append(p.errors, ParseError{Param: param, Message: message})
}

func (p *queryParser) raw(key string) []string {
	var out []string
	for _, v := range p.params[key] {
		if len(v) > p.maxCharLen {
			p.fail(key, fmt.Sprintf("value exceeds maximum length (%d chars)", p.maxCharLen))
			continue
		}
		out = append(out, v)
	}
	return out
}

func (p *queryParser) single(key string) string {
	values := p.raw(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// list accepts both repeated keys and comma separated values.
func (p *queryParser) list(key string) []string {
	var out []string
	for _, v := range p.raw(key) {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// valueLists keeps one list per occurrence of key.
func (p *queryParser) valueLists(key string) [][]string {
	var out [][]string
	for _, v := range p.raw(key) {
		var values []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				values = append(values, item)
			}
		}
		if len(values) > p.maxInValues {
			p.fail(key, fmt.Sprintf("IN operator exceeds maximum values (%d)", p.maxInValues))
			values = values[:p.maxInValues]
		}
		out = append(out, values)
	}
	return out
}

func (p *queryParser) integer(key string) int {
	v := p.single(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, "must be an integer")
		return 0
	}
	return n
}
