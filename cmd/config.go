package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/blnkfinance/tenantquery/config"
)

func configCommands(app *tqInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "config outputs your instances computed configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := redactedConfig(app.cnf)
			if err != nil {
				return fmt.Errorf("error printing config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}

// redactedConfig renders the configuration with connection passwords masked.
func redactedConfig(cnf *config.Configuration) ([]byte, error) {
	out := *cnf
	out.DataSource.Dns = redactDSN(cnf.DataSource.Dns)
	out.Redis.Dns = redactDSN(cnf.Redis.Dns)
	return json.MarshalIndent(out, "", "    ")
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
