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
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blnkfinance/tenantquery/config"
	"github.com/blnkfinance/tenantquery/database"
	"github.com/blnkfinance/tenantquery/internal/apierror"
	"github.com/blnkfinance/tenantquery/internal/cache"
	"github.com/blnkfinance/tenantquery/internal/filter"
	pg_listener "github.com/blnkfinance/tenantquery/internal/pg-listener"
	"github.com/blnkfinance/tenantquery/internal/tenant"
	"github.com/blnkfinance/tenantquery/model"
)

//go:embed sql
var SQLFiles embed.FS

const tracerName = "tenantquery"

// TenantQuery is the service layer over the query engine.
type TenantQuery struct {
	datasource database.IDataSource
	tenant     tenant.Resolver
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewTenantQuery builds the service from the loaded configuration. The
// entity cache is attached when Redis is configured.
func NewTenantQuery(db database.IDataSource, resolver tenant.Resolver) (*TenantQuery, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	newCache, err := cache.NewCache()
	switch {
	case errors.Is(err, cache.ErrDisabled):
		logrus.Info("redis not configured, entity lookups bypass the cache")
		newCache = nil
	case err != nil:
		return nil, err
	}

	return New(db, resolver, newCache, configuration.Redis.CacheTTL), nil
}

// New assembles a TenantQuery from explicit parts. A nil cache disables
// read-through lookups.
func New(db database.IDataSource, resolver tenant.Resolver, c cache.Cache, ttl time.Duration) *TenantQuery {
	if resolver == nil {
		resolver = tenant.ContextResolver{}
	}
	if ttl <= 0 {
		ttl = config.DEFAULT_CACHE_TTL
	}
	return &TenantQuery{datasource: db, tenant: resolver, cache: c, cacheTTL: ttl}
}

// Filter runs a descriptor against any registered entity and returns the
// untyped records.
func (t *TenantQuery) Filter(ctx context.Context, entity string, q filter.FilterQuery) (*filter.Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Filter")
	defer span.End()
	span.SetAttributes(attribute.String("entity", entity))

	opts, ok := model.QueryOptions(entity)
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, fmt.Sprintf("unknown entity '%s'", entity), nil)
	}
	appID, err := t.tenant.AppID(ctx)
	if err != nil {
		return nil, err
	}
	return t.datasource.AdvanceFilter(tenant.WithAppID(ctx, appID), entity, q, opts)
}

// Get loads one record of any registered entity through the cache.
func (t *TenantQuery) Get(ctx context.Context, entity string, id int64) (filter.Record, error) {
	var rec filter.Record
	if err := t.get(ctx, entity, id, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *TenantQuery) get(ctx context.Context, entity string, id int64, out interface{}) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Get")
	defer span.End()
	span.SetAttributes(attribute.String("entity", entity), attribute.Int64("id", id))

	opts, ok := model.LookupOptions(entity)
	if !ok {
		return apierror.NewAPIError(apierror.ErrBadRequest, fmt.Sprintf("unknown entity '%s'", entity), nil)
	}
	appID, err := t.tenant.AppID(ctx)
	if err != nil {
		return err
	}
	ctx = tenant.WithAppID(ctx, appID)
	key := cache.EntityKey(entity, appID, id)

	if t.cache != nil {
		found, err := t.cache.Get(ctx, key, out)
		if err != nil {
			logrus.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		if found {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return nil
		}
	}

	rec, err := t.datasource.FindByID(ctx, entity, opts, id)
	if err != nil {
		return err
	}
	if err := rec.Decode(out); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("failed to decode %s", entity), err)
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, key, out, t.cacheTTL); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("failed to cache entity")
		}
	}
	return nil
}

// Invalidate drops the cached copy of an entity for the calling tenant.
func (t *TenantQuery) Invalidate(ctx context.Context, entity string, id int64) error {
	if t.cache == nil {
		return nil
	}
	appID, err := t.tenant.AppID(ctx)
	if err != nil {
		return err
	}
	return t.cache.Delete(ctx, cache.EntityKey(entity, appID, id))
}

// HandleNotification evicts the cached copies affected by a data change.
// A profile or address is preloaded into its user, so the owning user is
// evicted as well.
func (t *TenantQuery) HandleNotification(ctx context.Context, change pg_listener.Change) error {
	if t.cache == nil || change.AppID == "" {
		return nil
	}
	keys := []string{cache.EntityKey(change.Table, change.AppID, change.ID)}
	if change.Table != model.EntityUsers && change.UserID != 0 {
		keys = append(keys, cache.EntityKey(model.EntityUsers, change.AppID, change.UserID))
	}

	var errs []error
	for _, key := range keys {
		if err := t.cache.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("evict %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// CacheEnabled reports whether entity lookups are cached.
func (t *TenantQuery) CacheEnabled() bool { return t.cache != nil }

func filterPage[T any](ctx context.Context, t *TenantQuery, entity string, q filter.FilterQuery) (*model.FilterPage[T], error) {
	result, err := t.Filter(ctx, entity, q)
	if err != nil {
		return nil, err
	}
	page := &model.FilterPage[T]{Data: []T{}, Total: result.Total, TotalPage: result.TotalPage}
	if err := result.Decode(&page.Data); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("failed to decode %s", entity), err)
	}
	return page, nil
}
