package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blnkfinance/tenantquery/config"
	"github.com/blnkfinance/tenantquery/internal/filter"
	"github.com/blnkfinance/tenantquery/internal/tenant"
)

func queryCommands(app *tqInstance) *cobra.Command {
	var appID, file, rawQuery string

	cmd := &cobra.Command{
		Use:   "query <entity>",
		Short: "run an advance filter against an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := readDescriptor(cmd.InOrStdin(), file, rawQuery, app.cnf.Query)
			if err != nil {
				return err
			}
			tq, err := app.service()
			if err != nil {
				return err
			}

			ctx := tenant.WithAppID(cmd.Context(), appID)
			result, err := tq.Filter(ctx, args[0], q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&appID, "app-id", "", "application id every row is scoped to")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON descriptor file, - for stdin")
	cmd.Flags().StringVarP(&rawQuery, "query", "q", "", "descriptor as a query string, e.g. filter_by=provider&filter=google")
	_ = cmd.MarkFlagRequired("app-id")

	return cmd
}

func getCommands(app *tqInstance) *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "load a single record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[1], err)
			}
			tq, err := app.service()
			if err != nil {
				return err
			}

			ctx := tenant.WithAppID(cmd.Context(), appID)
			rec, err := tq.Get(ctx, args[0], id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&appID, "app-id", "", "application id every row is scoped to")
	_ = cmd.MarkFlagRequired("app-id")

	return cmd
}

// readDescriptor builds the filter descriptor from a JSON file or a query
// string. With neither given the descriptor is empty and every row of the
// tenant is returned.
func readDescriptor(stdin io.Reader, file, rawQuery string, limits config.QueryConfig) (filter.FilterQuery, error) {
	var q filter.FilterQuery

	switch {
	case file != "" && rawQuery != "":
		return q, errors.New("use either --file or --query, not both")
	case file != "":
		var (
			data []byte
			err  error
		)
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return q, fmt.Errorf("error reading descriptor: %w", err)
		}
		if err := json.Unmarshal(data, &q); err != nil {
			return q, fmt.Errorf("error decoding descriptor: %w", err)
		}
		return q, nil
	case rawQuery != "":
		values, err := url.ParseQuery(rawQuery)
		if err != nil {
			return q, fmt.Errorf("error parsing query: %w", err)
		}
		parsed := filter.ParseFromQuery(values, &filter.ParseOptions{
			MaxFilters:  limits.MaxFilters,
			MaxInValues: limits.MaxInValues,
			MaxCharLen:  limits.MaxCharLen,
		})
		if err := parsed.Err(); err != nil {
			return q, err
		}
		return *parsed.Query, nil
	}
	return q, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
