// Package sqldb imports query results and exports tables over database/sql,
// for sqlite, PostgreSQL, MySQL, Oracle and Snowflake.
package sqldb

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"tabprep/internal/errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/snowflakedb/gosnowflake"
)

func init() {
	sqlx.BindDriver("oracle", sqlx.NAMED)
}

// Dialect names a supported database
type Dialect string

const (
	DialectSQLite     Dialect = "sqlite"
	DialectPostgreSQL Dialect = "postgresql"
	DialectMySQL      Dialect = "mysql"
	DialectOracle     Dialect = "oracle"
	DialectSnowflake  Dialect = "snowflake"
)

// Connection holds the parameters for one database. Which fields are
// required depends on the dialect.
type Connection struct {
	Dialect   Dialect `yaml:"dialect" json:"dialect" validate:"required"`
	Host      string  `yaml:"host" json:"host,omitempty"`
	Port      int     `yaml:"port" json:"port,omitempty"`
	User      string  `yaml:"user" json:"user,omitempty"`
	Password  string  `yaml:"password" json:"-"`
	Database  string  `yaml:"database" json:"database,omitempty"` // file path for sqlite
	SSLMode   string  `yaml:"sslmode" json:"sslmode,omitempty"`
	Service   string  `yaml:"service" json:"service,omitempty"` // oracle
	Account   string  `yaml:"account" json:"account,omitempty"` // snowflake
	Warehouse string  `yaml:"warehouse" json:"warehouse,omitempty"`
	Schema    string  `yaml:"schema" json:"schema,omitempty"`
	Role      string  `yaml:"role" json:"role,omitempty"`
}

// dialectSpec describes how to reach and write to one database kind
type dialectSpec struct {
	driver      string
	defaultPort int
	numericType string
	textType    string
	quote       func(string) string
	dropTable   func(quoted string) string
	dsn         func(c Connection, port int) (string, error)
}

var dialects = map[Dialect]dialectSpec{
	DialectSQLite: {
		driver:      "sqlite3",
		numericType: "REAL",
		textType:    "TEXT",
		quote:       doubleQuote,
		dropTable:   dropIfExists,
		dsn: func(c Connection, _ int) (string, error) {
			if err := requireFields(c, "database", c.Database); err != nil {
				return "", err
			}
			return c.Database, nil
		},
	},
	DialectPostgreSQL: {
		driver:      "postgres",
		defaultPort: 5432,
		numericType: "DOUBLE PRECISION",
		textType:    "TEXT",
		quote:       doubleQuote,
		dropTable:   dropIfExists,
		dsn: func(c Connection, port int) (string, error) {
			if err := requireFields(c, "host", c.Host, "user", c.User, "database", c.Database); err != nil {
				return "", err
			}
			sslMode := c.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			u := url.URL{
				Scheme:   "postgres",
				User:     url.UserPassword(c.User, c.Password),
				Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
				Path:     "/" + c.Database,
				RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
			}
			return u.String(), nil
		},
	},
	DialectMySQL: {
		driver:      "mysql",
		defaultPort: 3306,
		numericType: "DOUBLE",
		textType:    "TEXT",
		quote:       backQuote,
		dropTable:   dropIfExists,
		dsn: func(c Connection, port int) (string, error) {
			if err := requireFields(c, "host", c.Host, "user", c.User, "database", c.Database); err != nil {
				return "", err
			}
			cfg := mysql.NewConfig()
			cfg.User = c.User
			cfg.Passwd = c.Password
			cfg.Net = "tcp"
			cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(port))
			cfg.DBName = c.Database
			return cfg.FormatDSN(), nil
		},
	},
	DialectOracle: {
		driver:      "oracle",
		defaultPort: 1521,
		numericType: "BINARY_DOUBLE",
		textType:    "VARCHAR2(4000)",
		quote:       doubleQuote,
		dropTable: func(quoted string) string {
			stmt := strings.ReplaceAll("DROP TABLE "+quoted, "'", "''")
			return "BEGIN EXECUTE IMMEDIATE '" + stmt + "'; " +
				"EXCEPTION WHEN OTHERS THEN IF SQLCODE != -942 THEN RAISE; END IF; END;"
		},
		dsn: func(c Connection, port int) (string, error) {
			if err := requireFields(c, "host", c.Host, "user", c.User, "service", c.Service); err != nil {
				return "", err
			}
			return go_ora.BuildUrl(c.Host, port, c.Service, c.User, c.Password, nil), nil
		},
	},
	DialectSnowflake: {
		driver:      "snowflake",
		numericType: "FLOAT",
		textType:    "VARCHAR",
		quote:       doubleQuote,
		dropTable:   dropIfExists,
		dsn: func(c Connection, _ int) (string, error) {
			if err := requireFields(c, "account", c.Account, "user", c.User, "database", c.Database); err != nil {
				return "", err
			}
			return gosnowflake.DSN(&gosnowflake.Config{
				Account:   c.Account,
				User:      c.User,
				Password:  c.Password,
				Database:  c.Database,
				Schema:    c.Schema,
				Warehouse: c.Warehouse,
				Role:      c.Role,
			})
		},
	},
}

func lookup(d Dialect) (dialectSpec, error) {
	spec, ok := dialects[d]
	if !ok {
		return dialectSpec{}, errors.Newf(errors.CodeUnsupportedFormat, "unsupported database dialect: %q", d)
	}
	return spec, nil
}

// DSN builds the driver name and connection string for c
func DSN(c Connection) (driver, dsn string, err error) {
	spec, err := lookup(c.Dialect)
	if err != nil {
		return "", "", err
	}
	port := c.Port
	if port == 0 {
		port = spec.defaultPort
	}
	dsn, err = spec.dsn(c, port)
	if err != nil {
		return "", "", err
	}
	return spec.driver, dsn, nil
}

// requireFields checks name/value pairs and reports the first empty one
func requireFields(c Connection, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return errors.Newf(errors.CodeInvalidInput, "%s connection requires %s", c.Dialect, pairs[i])
		}
	}
	return nil
}

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func backQuote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func dropIfExists(quoted string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", quoted)
}
