package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	pg_listener "github.com/blnkfinance/tenantquery/internal/pg-listener"
)

func listenCommands(app *tqInstance) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "evict cached entities on postgres data change notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cnf.DataSource.Driver != "postgres" {
				return errors.New("listen requires the postgres driver")
			}
			tq, err := app.service()
			if err != nil {
				return err
			}
			if !tq.CacheEnabled() {
				return errors.New("listen requires redis to be configured")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			listener := pg_listener.NewDBListener(pg_listener.ListenerConfig{
				PgConnStr: app.cnf.DataSource.Dns,
				Channel:   channel,
			}, tq)
			return listener.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&channel, "channel", pg_listener.DefaultChannel, "notification channel")

	return cmd
}
