package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/platform/paths"
	"sql-orchestrator/internal/secrets"
)

func newBearerToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change the daemon configuration",
	}
	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigSetPasswordCmd(),
		newConfigGenerateTokenCmd(),
		newConfigRemoveConnectionCmd(),
	)
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return err
			}
			if cfg.BearerToken != "" {
				cfg.BearerToken = fmt.Sprintf("(set, len=%d)", len(cfg.BearerToken))
			}

			out := cmd.OutOrStdout()
			if p, err := paths.ConfigFilePath(); err == nil {
				fmt.Fprintf(out, "# %s\n", p)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

type connectionFlags struct {
	name     string
	driver   string
	host     string
	port     int
	user     string
	database string
	sslMode  string
	dsn      string
}

type settingsFlags struct {
	apiListen   string
	debug       bool
	bearerToken string
	attributes  map[string]string
	conn        connectionFlags
}

func newConfigSetCmd() *cobra.Command {
	s := &settingsFlags{}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings and add or update a connection",
		Example: `  sql-orchestrator config set --api-listen 127.0.0.1:8080 --attribute ServiceTimeout=30000
  sql-orchestrator config set --connection erp --driver mssql --host db01 --port 1433 --user app --database erp
  sql-orchestrator config set --connection local --driver sqlite3 --database C:\data\local.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return err
			}
			changed, err := s.apply(cmd, &cfg)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes requested.")
				return nil
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Config saved.")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&s.apiListen, "api-listen", "", "API listen address (host:port)")
	f.BoolVar(&s.debug, "debug", false, "enable debug logging")
	f.StringVar(&s.bearerToken, "bearer-token", "", "bearer token clients must send")
	f.StringToStringVar(&s.attributes, "attribute", nil, "service attribute as key=value (repeatable)")
	f.StringVar(&s.conn.name, "connection", "", "name of the connection to add or update")
	f.StringVar(&s.conn.driver, "driver", "", "connection driver: "+strings.Join(config.DBDriverOptions(), ", "))
	f.StringVar(&s.conn.host, "host", "", "connection host")
	f.IntVar(&s.conn.port, "port", 0, "connection port (1-65535)")
	f.StringVar(&s.conn.user, "user", "", "connection user")
	f.StringVar(&s.conn.database, "database", "", "database name, or file path for sqlite3")
	f.StringVar(&s.conn.sslMode, "ssl-mode", "", "postgres sslmode")
	f.StringVar(&s.conn.dsn, "dsn", "", "raw driver DSN, overrides host/port/user/database")
	return cmd
}

var connectionFlagNames = []string{"driver", "host", "port", "user", "database", "ssl-mode", "dsn"}

// apply copies the flags the user set into cfg and reports whether anything
// changed.
func (s *settingsFlags) apply(cmd *cobra.Command, cfg *config.Config) (bool, error) {
	f := cmd.Flags()
	changed := false

	if f.Changed("api-listen") {
		cfg.APIListen = strings.TrimSpace(s.apiListen)
		changed = true
	}
	if f.Changed("debug") {
		cfg.Debug = s.debug
		changed = true
	}
	if f.Changed("bearer-token") {
		cfg.BearerToken = strings.TrimSpace(s.bearerToken)
		changed = true
	}
	if len(s.attributes) > 0 {
		if cfg.Attributes == nil {
			cfg.Attributes = make(map[string]string)
		}
		for k, v := range s.attributes {
			cfg.Attributes[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		changed = true
	}

	connChanged := false
	for _, n := range connectionFlagNames {
		if f.Changed(n) {
			connChanged = true
		}
	}
	if connChanged && strings.TrimSpace(s.conn.name) == "" {
		return false, errors.New("--connection is required with connection flags")
	}
	if strings.TrimSpace(s.conn.name) != "" {
		if err := s.conn.apply(cmd, cfg); err != nil {
			return false, err
		}
		changed = true
	}

	return changed, nil
}

func (c *connectionFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	name := strings.TrimSpace(c.name)

	if cfg.Connections == nil {
		cfg.Connections = make(map[string]config.ConnectionConfig)
	}
	conn, exists := cfg.Connections[name]
	if !exists && !f.Changed("driver") {
		return errors.Errorf("new connection %q needs --driver", name)
	}

	if f.Changed("driver") {
		val := strings.ToLower(strings.TrimSpace(c.driver))
		if !config.IsAllowedDriver(val) {
			return errors.Errorf("invalid driver: %q", c.driver)
		}
		conn.Driver = config.DBDriver(val)
	}
	if f.Changed("host") {
		conn.Host = strings.TrimSpace(c.host)
	}
	if f.Changed("port") {
		if c.port <= 0 || c.port > 65535 {
			return errors.Errorf("invalid port: %d", c.port)
		}
		conn.Port = c.port
	}
	if f.Changed("user") {
		conn.User = strings.TrimSpace(c.user)
	}
	if f.Changed("database") {
		conn.Database = strings.TrimSpace(c.database)
	}
	if f.Changed("ssl-mode") {
		conn.SSLMode = strings.TrimSpace(c.sslMode)
	}
	if f.Changed("dsn") {
		conn.DSN = strings.TrimSpace(c.dsn)
	}

	cfg.Connections[name] = conn
	return nil
}

func newConfigSetPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "set-password <connection>",
		Short: "Store a connection password in the local secret store",
		Long: `Store a connection password in the local secret store.

Without --password the first line of stdin is used. An empty password
removes the stored one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return err
			}
			name := args[0]
			if _, ok := cfg.Connection(name); !ok {
				return errors.Errorf("connection %q is not configured", name)
			}

			if !cmd.Flags().Changed("password") {
				password, err = readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			key := secrets.DBPasswordKey(name)
			if password == "" {
				if err := secrets.Delete(key); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "DB password removed.")
				return nil
			}
			if err := secrets.Set(key, []byte(password)); err != nil {
				return errors.Wrap(err, "failed to save db password")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DB password saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password to store")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newConfigGenerateTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-token",
		Short: "Generate a new bearer token, save it and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return err
			}
			token, err := newBearerToken()
			if err != nil {
				return err
			}
			cfg.BearerToken = token
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bearer token: %s\n", token)
			return nil
		},
	}
}

func newConfigRemoveConnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-connection <name>",
		Short: "Remove a connection and its stored password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return err
			}
			name := args[0]
			if _, ok := cfg.Connections[name]; !ok {
				return errors.Errorf("connection %q is not configured", name)
			}
			delete(cfg.Connections, name)
			if err := config.Save(cfg); err != nil {
				return err
			}
			if err := secrets.Delete(secrets.DBPasswordKey(name)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Connection removed.")
			return nil
		},
	}
}
