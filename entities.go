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

package tenantquery

import (
	"context"

	"github.com/blnkfinance/tenantquery/internal/filter"
	"github.com/blnkfinance/tenantquery/model"
)

// FilterUsers filters the calling tenant's users. Profiles and addresses
// are preloaded and nested filters apply to profiles.
func (t *TenantQuery) FilterUsers(ctx context.Context, q filter.FilterQuery) (*model.FilterPage[model.User], error) {
	return filterPage[model.User](ctx, t, model.EntityUsers, q)
}

// FilterProfiles filters profiles whose owning user belongs to the tenant.
func (t *TenantQuery) FilterProfiles(ctx context.Context, q filter.FilterQuery) (*model.FilterPage[model.Profile], error) {
	return filterPage[model.Profile](ctx, t, model.EntityProfiles, q)
}

// FilterAddresses filters addresses whose owning user belongs to the tenant.
func (t *TenantQuery) FilterAddresses(ctx context.Context, q filter.FilterQuery) (*model.FilterPage[model.Address], error) {
	return filterPage[model.Address](ctx, t, model.EntityAddress, q)
}

func (t *TenantQuery) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	if err := t.get(ctx, model.EntityUsers, id, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (t *TenantQuery) GetProfile(ctx context.Context, id int64) (*model.Profile, error) {
	profile := &model.Profile{}
	if err := t.get(ctx, model.EntityProfiles, id, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (t *TenantQuery) GetAddress(ctx context.Context, id int64) (*model.Address, error) {
	address := &model.Address{}
	if err := t.get(ctx, model.EntityAddress, id, address); err != nil {
		return nil, err
	}
	return address, nil
}
