package config

import (
	"sort"
	"strings"
	"time"
)

type DBDriver string

const (
	DBDriverMSSQL    DBDriver = "mssql"
	DBDriverPostgres DBDriver = "postgres"
	DBDriverPgx      DBDriver = "pgx"
	DBDriverSQLite   DBDriver = "sqlite3"
)

const AttrServiceTimeout = "ServiceTimeout"

type ConnectionConfig struct {
	Driver   DBDriver `yaml:"driver"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	User     string   `yaml:"user"`
	Database string   `yaml:"database"`
	SSLMode  string   `yaml:"sslMode,omitempty"`
	// DSN, when set, is passed to the driver as is.
	DSN string `yaml:"dsn,omitempty"`
}

type PoolConfig struct {
	MaxOpenConns    int           `yaml:"maxOpenConns" env:"SQLORCH_POOL_MAX_OPEN"`
	MaxIdleConns    int           `yaml:"maxIdleConns" env:"SQLORCH_POOL_MAX_IDLE"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" env:"SQLORCH_POOL_CONN_MAX_LIFETIME"`
	PingTimeout     time.Duration `yaml:"pingTimeout" env:"SQLORCH_POOL_PING_TIMEOUT"`
	// MaxRows caps the rows one execution may return. Zero means no cap.
	MaxRows int `yaml:"maxRows" env:"SQLORCH_POOL_MAX_ROWS"`
}

type Config struct {
	APIListen   string                      `yaml:"apiListen" env:"SQLORCH_API_LISTEN"`
	BearerToken string                      `yaml:"bearerToken" env:"SQLORCH_BEARER_TOKEN"`
	Debug       bool                        `yaml:"debug" env:"SQLORCH_DEBUG"`
	Attributes  map[string]string           `yaml:"attributes"`
	Pool        PoolConfig                  `yaml:"pool"`
	Connections map[string]ConnectionConfig `yaml:"connections"`
}

func DBDriverValues() []DBDriver {
	return []DBDriver{DBDriverMSSQL, DBDriverPostgres, DBDriverPgx, DBDriverSQLite}
}

func DBDriverOptions() []string {
	vals := DBDriverValues()
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

func IsAllowedDriver(val string) bool {
	for _, v := range DBDriverValues() {
		if string(v) == val {
			return true
		}
	}
	return false
}

// ConnectionNames returns the configured connection names in sorted order.
func (c Config) ConnectionNames() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Config) Connection(name string) (ConnectionConfig, bool) {
	conn, ok := c.Connections[name]
	return conn, ok
}

// Attribute looks up a service attribute. Keys are matched case-insensitively.
func (c Config) Attribute(name string) (string, bool) {
	if v, ok := c.Attributes[name]; ok {
		return v, true
	}
	for k, v := range c.Attributes {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func Default() Config {
	return Config{
		APIListen:   "127.0.0.1:8080",
		Attributes:  map[string]string{AttrServiceTimeout: "60000"},
		Pool:        DefaultPool(),
		Connections: map[string]ConnectionConfig{},
	}
}

func DefaultPool() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}
