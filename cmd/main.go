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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/tenantquery"
	"github.com/blnkfinance/tenantquery/config"
	"github.com/blnkfinance/tenantquery/database"
	"github.com/blnkfinance/tenantquery/internal/traces"
)

// TenantQueryCLI wraps the root cobra command.
type TenantQueryCLI struct {
	cmd *cobra.Command
}

// tqInstance holds the runtime state shared by the subcommands.
type tqInstance struct {
	tq       *tenantquery.TenantQuery
	cnf      *config.Configuration
	shutdown func(context.Context) error
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and installs tracing before any command runs.
func preRun(app *tqInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(*configFile); err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}
		app.cnf = cnf

		shutdown, err := traces.SetupOTelSDK(cmd.Context(), cnf.Tracing)
		if err != nil {
			return fmt.Errorf("error setting up OTel SDK: %w", err)
		}
		app.shutdown = shutdown
		return nil
	}
}

func postRun(app *tqInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if app.shutdown == nil {
			return nil
		}
		return app.shutdown(context.Background())
	}
}

// service connects to the store on first use. Commands that only touch
// configuration or migrations never open the query engine.
func (app *tqInstance) service() (*tenantquery.TenantQuery, error) {
	if app.tq != nil {
		return app.tq, nil
	}
	db, err := database.NewDataSource(app.cnf)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %w", err)
	}
	tq, err := tenantquery.NewTenantQuery(db, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating tenantquery: %w", err)
	}
	app.tq = tq
	return tq, nil
}

func NewCLI() *TenantQueryCLI {
	var configFile string
	app := &tqInstance{}

	rootCmd := &cobra.Command{
		Use:           "tenantquery",
		Short:         "Tenant scoped advanced query engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./tenantquery.json", "Configuration file for tenantquery")
	rootCmd.PersistentPreRunE = preRun(app, &configFile)
	rootCmd.PersistentPostRunE = postRun(app)

	rootCmd.AddCommand(migrateCommands(app))
	rootCmd.AddCommand(queryCommands(app))
	rootCmd.AddCommand(getCommands(app))
	rootCmd.AddCommand(configCommands(app))
	rootCmd.AddCommand(listenCommands(app))

	return &TenantQueryCLI{cmd: rootCmd}
}

func (c TenantQueryCLI) executeCLI() {
	if err := c.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
