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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_DRIVER        = "postgres"
	DEFAULT_CACHE_TTL     = 10 * time.Minute
	DEFAULT_MAX_FILTERS   = 20
	DEFAULT_MAX_IN_VALUES = 100
	DEFAULT_MAX_CHAR_LEN  = 256
)

var ConfigStore atomic.Value

type DataSourceConfig struct {
	Dns             string        `json:"dns" envconfig:"TENANTQUERY_DATA_SOURCE_DNS"`
	Driver          string        `json:"driver" envconfig:"TENANTQUERY_DATA_SOURCE_DRIVER"`
	MaxOpenConns    int           `json:"max_open_conns" envconfig:"TENANTQUERY_DATA_SOURCE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"max_idle_conns" envconfig:"TENANTQUERY_DATA_SOURCE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" envconfig:"TENANTQUERY_DATA_SOURCE_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" envconfig:"TENANTQUERY_DATA_SOURCE_CONN_MAX_IDLE_TIME"`
	ConnectTimeout  time.Duration `json:"connect_timeout" envconfig:"TENANTQUERY_DATA_SOURCE_CONNECT_TIMEOUT"`
}

type RedisConfig struct {
	Dns           string        `json:"dns" envconfig:"TENANTQUERY_REDIS_DNS"`
	SkipTLSVerify bool          `json:"skip_tls_verify" envconfig:"TENANTQUERY_REDIS_SKIP_TLS_VERIFY"`
	CacheTTL      time.Duration `json:"cache_ttl" envconfig:"TENANTQUERY_REDIS_CACHE_TTL"`
}

// QueryConfig bounds what a single filter descriptor may ask for.
type QueryConfig struct {
	MaxFilters  int           `json:"max_filters" envconfig:"TENANTQUERY_QUERY_MAX_FILTERS"`
	MaxInValues int           `json:"max_in_values" envconfig:"TENANTQUERY_QUERY_MAX_IN_VALUES"`
	MaxCharLen  int           `json:"max_char_len" envconfig:"TENANTQUERY_QUERY_MAX_CHAR_LEN"`
	Timeout     time.Duration `json:"timeout" envconfig:"TENANTQUERY_QUERY_TIMEOUT"`
}

type TracingConfig struct {
	Enabled     bool   `json:"enabled" envconfig:"TENANTQUERY_TRACING_ENABLED"`
	Endpoint    string `json:"endpoint" envconfig:"TENANTQUERY_TRACING_ENDPOINT"`
	ServiceName string `json:"service_name" envconfig:"TENANTQUERY_TRACING_SERVICE_NAME"`
}

type Configuration struct {
	ProjectName string           `json:"project_name" envconfig:"TENANTQUERY_PROJECT_NAME"`
	DataSource  DataSourceConfig `json:"data_source"`
	Redis       RedisConfig      `json:"redis"`
	Query       QueryConfig      `json:"query"`
	Tracing     TracingConfig    `json:"tracing"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("tenantquery", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called tenantquery.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Tenant Query"
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.DataSource.Driver = strings.ToLower(strings.TrimSpace(cnf.DataSource.Driver))
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.DataSource.Driver == "" {
		cnf.DataSource.Driver = DEFAULT_DRIVER
	}

	err := validation.ValidateStruct(&cnf.DataSource,
		validation.Field(&cnf.DataSource.Driver, validation.In("postgres", "mysql", "sqlite3")),
		validation.Field(&cnf.DataSource.MaxOpenConns, validation.Min(0)),
		validation.Field(&cnf.DataSource.MaxIdleConns, validation.Min(0)),
	)
	if err != nil {
		return err
	}

	if cnf.Redis.Dns == "" {
		log.Println("Warning: Redis DNS is empty. Entity lookups will not be cached.")
	}

	if cnf.Redis.CacheTTL <= 0 {
		cnf.Redis.CacheTTL = DEFAULT_CACHE_TTL
	}

	if cnf.Query.MaxFilters <= 0 {
		cnf.Query.MaxFilters = DEFAULT_MAX_FILTERS
	}
	if cnf.Query.MaxInValues <= 0 {
		cnf.Query.MaxInValues = DEFAULT_MAX_IN_VALUES
	}
	if cnf.Query.MaxCharLen <= 0 {
		cnf.Query.MaxCharLen = DEFAULT_MAX_CHAR_LEN
	}

	if cnf.Tracing.Enabled && cnf.Tracing.ServiceName == "" {
		cnf.Tracing.ServiceName = "tenantquery"
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
