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

package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql" // Import the mysql driver
	_ "github.com/lib/pq"              // Import the postgres driver
	_ "github.com/mattn/go-sqlite3"    // Import the sqlite3 driver
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/tenantquery/config"
)

const defaultConnectTimeout = 30 * time.Second

var (
	instance *sql.DB
	once     sync.Once
	onceErr  error
)

// GetDBConnection ensures a single database connection pool per process.
func GetDBConnection(cfg config.DataSourceConfig) (*sql.DB, error) {
	once.Do(func() {
		instance, onceErr = ConnectDB(cfg)
	})
	return instance, onceErr
}

// ConnectDB opens a pool for the configured driver and waits for the store
// to answer a ping, retrying with exponential backoff up to ConnectTimeout.
func ConnectDB(cfg config.DataSourceConfig) (*sql.DB, error) {
	if cfg.Dns == "" {
		return nil, errors.New("data source DNS is required")
	}
	driver := cfg.Driver
	if driver == "" {
		driver = config.DEFAULT_DRIVER
	}

	db, err := sql.Open(driver, cfg.Dns)
	if err != nil {
		return nil, err
	}

	// Apply connection pooling settings
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		pingErr := db.PingContext(ctx)
		if pingErr != nil {
			logrus.WithFields(logrus.Fields{"driver": driver, "attempt": attempt}).Warnf("database not ready: %v", pingErr)
		}
		return pingErr
	}, backoff.WithContext(b, ctx))
	if err != nil {
		logrus.Errorf("Database connection error: %v", err)
		_ = db.Close()
		return nil, err
	}

	logrus.WithField("driver", driver).Info("Database connection established")
	return db, nil
}
