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
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/blnkfinance/tenantquery/internal/filter"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) AdvanceFilter(ctx context.Context, entity string, q filter.FilterQuery, opts filter.QueryOptions) (*filter.Result, error) {
	args := m.Called(ctx, entity, q, opts)
	if res, ok := args.Get(0).(*filter.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDataSource) FindByID(ctx context.Context, entity string, opts filter.QueryOptions, id interface{}) (filter.Record, error) {
	args := m.Called(ctx, entity, opts, id)
	if rec, ok := args.Get(0).(filter.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}
