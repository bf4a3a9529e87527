/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"

	"github.com/blnkfinance/tenantquery/internal/filter"
)

// IDataSource defines the read operations served by the query engine.
type IDataSource interface {
	// AdvanceFilter runs the count and page queries for a descriptor.
	AdvanceFilter(ctx context.Context, entity string, q filter.FilterQuery, opts filter.QueryOptions) (*filter.Result, error)
	// FindByID loads one record of the entity, honouring the same scoping.
	FindByID(ctx context.Context, entity string, opts filter.QueryOptions, id interface{}) (filter.Record, error)
}
