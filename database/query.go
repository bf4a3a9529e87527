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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/blnkfinance/tenantquery/internal/apierror"
	"github.com/blnkfinance/tenantquery/internal/filter"
)

const tracerName = "tenantquery/database"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (d *Datasource) appID(ctx context.Context, opts filter.QueryOptions) (string, error) {
	if !opts.Scoped() {
		return "", nil
	}
	if d.Tenant == nil {
		return "", apierror.NewAPIError(apierror.ErrUnauthorized, "no tenant resolver configured", nil)
	}
	return d.Tenant.AppID(ctx)
}

func (d *Datasource) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.Timeout > 0 {
		return context.WithTimeout(ctx, d.Timeout)
	}
	return context.WithCancel(ctx)
}

// AdvanceFilter counts the rows matching the descriptor and loads the
// requested page. Both statements run in one read only transaction so the
// total and the page observe the same snapshot.
func (d *Datasource) AdvanceFilter(ctx context.Context, entity string, q filter.FilterQuery, opts filter.QueryOptions) (*filter.Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Advance filter")
	defer span.End()

	queryID := GenerateUUIDWithSuffix("qry")
	span.SetAttributes(attribute.String("query.id", queryID), attribute.String("query.entity", entity))

	appID, err := d.appID(ctx, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	plan, err := d.Planner.Plan(entity, q, opts, appID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	countSQL, countArgs, err := plan.CountSQL()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to render count query", err)
	}
	dataSQL, dataArgs, err := plan.DataSQL()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to render data query", err)
	}

	logger := logrus.WithFields(logrus.Fields{"query_id": queryID, "entity": entity, "app_id": appID})
	logger.WithFields(logrus.Fields{"count_sql": countSQL, "data_sql": dataSQL}).Debug("running advance filter")
	started := time.Now()

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{
		Isolation: d.Planner.Dialect().SnapshotIsolation(),
		ReadOnly:  true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin transaction")
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to begin transaction", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.WithError(rbErr).Warn("rollback failed")
		}
	}()

	var total int64
	if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count")
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("failed to count %s", entity), err)
	}

	records, err := collect(ctx, tx, plan, dataSQL, dataArgs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "data")
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("failed to load %s", entity), err)
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to commit transaction", err)
	}

	logger.WithFields(logrus.Fields{
		"total":    total,
		"returned": len(records),
		"duration": time.Since(started).String(),
	}).Debug("advance filter done")
	span.SetAttributes(attribute.Int64("query.total", total), attribute.Int("query.returned", len(records)))

	return &filter.Result{
		Data:      records,
		Total:     total,
		TotalPage: filter.TotalPages(total, plan.PerPage),
	}, nil
}

// FindByID loads a single record with its preloads.
func (d *Datasource) FindByID(ctx context.Context, entity string, opts filter.QueryOptions, id interface{}) (filter.Record, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Find by id")
	defer span.End()

	appID, err := d.appID(ctx, opts)
	if err != nil {
		return nil, err
	}
	plan, err := d.Planner.Lookup(entity, opts, appID, id)
	if err != nil {
		return nil, err
	}
	query, args, err := plan.DataSQL()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to render lookup query", err)
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	records, err := collect(ctx, d.Conn, plan, query, args)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("failed to retrieve %s", entity), err)
	}
	if len(records) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("%s with ID '%v' not found", entity, id), sql.ErrNoRows)
	}
	return records[0], nil
}

func collect(ctx context.Context, q queryer, plan *filter.Plan, query string, args []interface{}) ([]filter.Record, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	collector, err := plan.NewCollector(columns)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := collector.Add(values); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return collector.Records(), nil
}
