package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/db"
	"sql-orchestrator/internal/logger"
	"sql-orchestrator/internal/secrets"
)

const testConnectionTimeout = 8 * time.Second

func newConnectionsCmd() *cobra.Command {
	var ping bool

	cmd := &cobra.Command{
		Use:   "connections",
		Short: "List the configured connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			names := cfg.ConnectionNames()
			if len(names) == 0 {
				fmt.Fprintln(out, "No connections configured.")
				return nil
			}

			header := []string{"Name", "Driver", "Server", "Database", "Password"}
			var adapter *db.SQLAdapter
			if ping {
				header = append(header, "Ping")
				adapter = db.NewSQLAdapter(cfg, db.OptionsFromConfig(cfg.Pool), db.SecretPasswords, logger.Nop())
				defer adapter.Close()
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				c, _ := cfg.Connection(name)
				row := []string{name, string(c.Driver), server(c), c.Database, passwordState(name)}
				if adapter != nil {
					row = append(row, pingState(cmd.Context(), adapter, name))
				}
				rows = append(rows, row)
			}
			renderTable(out, header, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "ping every connection")
	return cmd
}

func newTestConnectionCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "test-connection <name>",
		Short: "Open and ping one configured connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return err
			}
			name := args[0]
			c, ok := cfg.Connection(name)
			if !ok {
				return errors.Wrapf(db.ErrUnknownConnection, "%q", name)
			}

			if !cmd.Flags().Changed("password") {
				password, err = db.SecretPasswords(name)
				if err != nil {
					return errors.Wrap(err, "read stored password")
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), testConnectionTimeout)
			defer cancel()
			start := time.Now()
			if err := db.TestConnection(ctx, c, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connection OK (%s).\n", time.Since(start).Truncate(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "use this password instead of the stored one")
	return cmd
}

func server(c config.ConnectionConfig) string {
	switch {
	case c.DSN != "":
		return "(dsn)"
	case c.Driver == config.DBDriverSQLite:
		return "-"
	case c.Port > 0:
		return c.Host + ":" + strconv.Itoa(c.Port)
	default:
		return c.Host
	}
}

func passwordState(name string) string {
	_, err := secrets.Get(secrets.DBPasswordKey(name))
	switch {
	case err == nil:
		return "set"
	case errors.Is(err, secrets.ErrNotFound):
		return "none"
	default:
		return "unreadable"
	}
}

func pingState(ctx context.Context, adapter *db.SQLAdapter, name string) string {
	ctx, cancel := context.WithTimeout(ctx, testConnectionTimeout)
	defer cancel()
	start := time.Now()
	if err := adapter.Ping(ctx, name); err != nil {
		return "failed: " + err.Error()
	}
	return "ok " + time.Since(start).Truncate(time.Millisecond).String()
}
