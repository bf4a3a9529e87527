package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blnkfinance/tenantquery/config"
	dbconn "github.com/blnkfinance/tenantquery/internal/db-conn"
	"github.com/blnkfinance/tenantquery/internal/filter"
	"github.com/blnkfinance/tenantquery/internal/tenant"
	"github.com/blnkfinance/tenantquery/model"
)

type Datasource struct {
	Conn    *sql.DB
	Planner *filter.Planner
	Tenant  tenant.Resolver
	Timeout time.Duration
}

// NewDataSource wires the shared connection pool with the entity registry
// and the dialect of the configured driver.
func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := dbconn.GetDBConnection(configuration.DataSource)
	if err != nil {
		return nil, err
	}
	return newDatasource(con, configuration.DataSource.Driver, configuration.Query.Timeout)
}

func newDatasource(con *sql.DB, driver string, timeout time.Duration) (*Datasource, error) {
	dialect, err := filter.DialectFor(driver)
	if err != nil {
		return nil, err
	}
	registry, err := model.NewRegistry()
	if err != nil {
		return nil, err
	}
	return &Datasource{
		Conn:    con,
		Planner: filter.NewPlanner(registry, dialect),
		Tenant:  tenant.ContextResolver{},
		Timeout: timeout,
	}, nil
}

func GenerateUUIDWithSuffix(module string) string {
	return fmt.Sprintf("%s_%s", module, uuid.New().String())
}
