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

/*
Package main provides the CLI commands for applying and rolling back the
schema migrations of the supported drivers.
*/

package main

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/tenantquery"
	"github.com/blnkfinance/tenantquery/config"
	dbconn "github.com/blnkfinance/tenantquery/internal/db-conn"
	redlock "github.com/blnkfinance/tenantquery/internal/lock"
	redis_db "github.com/blnkfinance/tenantquery/internal/redis-db"
)

const (
	migrationLockTTL  = 5 * time.Minute
	migrationLockWait = 30 * time.Second
)

func migrateCommands(app *tqInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "manage the database schema",
	}

	cmd.AddCommand(migrateRunCommand(app, "up", migrate.Up))
	cmd.AddCommand(migrateRunCommand(app, "down", migrate.Down))

	return cmd
}

// migrationSource returns the embedded migrations of a driver.
func migrationSource(driver string) migrate.MigrationSource {
	return migrate.EmbedFileSystemMigrationSource{
		FileSystem: tenantquery.SQLFiles,
		Root:       path.Join("sql", driver),
	}
}

func migrateRunCommand(app *tqInstance, use string, direction migrate.MigrationDirection) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("migrate %s", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := app.cnf.DataSource.Driver

			release, err := lockMigrations(cmd.Context(), app.cnf, driver)
			if err != nil {
				return err
			}
			defer release()

			db, err := dbconn.ConnectDB(app.cnf.DataSource)
			if err != nil {
				return fmt.Errorf("error connecting to database: %w", err)
			}
			defer db.Close()

			n, err := migrate.ExecMax(db, driver, migrationSource(driver), direction, limit)
			if err != nil {
				return fmt.Errorf("error migrating %s: %w", use, err)
			}

			if direction == migrate.Up {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migrations!\n", n)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migrations!\n", n)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "max", 0, "maximum number of migrations to run, 0 for all")

	return cmd
}

// lockMigrations serialises migration runs across hosts when Redis is
// configured. Without Redis it is a no-op.
func lockMigrations(ctx context.Context, cnf *config.Configuration, driver string) (func(), error) {
	if cnf.Redis.Dns == "" {
		return func() {}, nil
	}
	client, err := redis_db.NewRedisClient(redis_db.SplitAddresses(cnf.Redis.Dns), cnf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	locker := redlock.NewLocker(client.Client(), "tenantquery:migrate:"+driver, uuid.NewString())
	if err := locker.WaitLock(ctx, migrationLockTTL, migrationLockWait); err != nil {
		_ = client.Client().Close()
		return nil, err
	}

	return func() {
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.WithError(err).Warn("failed to release migration lock")
		}
		_ = client.Client().Close()
	}, nil
}
