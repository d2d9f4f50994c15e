package dbclient

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "pgx"
	driverMySQL    = "mysql"
	driverLibSQL   = "libsql"
)

// sqlitePragmas apply to every pooled connection: WAL for concurrent reads,
// a 5s busy timeout and foreign keys.
const sqlitePragmas = "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// libsqlAvailable is set by the cgo build.
var libsqlAvailable bool

// resolve maps a datasource URL to a driver name and DSN.
func resolve(rawURL string, opts Options) (driver, dsn string, err error) {
	switch Scheme(rawURL) {
	case "file":
		path, err := sqlitePath(rawURL, opts.SchemaDir)
		if err != nil {
			return "", "", err
		}
		return driverSQLite, "file:" + path + sqlitePragmas, nil
	case "postgres", "postgresql":
		return driverPostgres, rawURL, nil
	case "mysql":
		dsn, err := mysqlDSN(rawURL)
		if err != nil {
			return "", "", err
		}
		return driverMySQL, dsn, nil
	case "libsql":
		if !libsqlAvailable {
			return "", "", fmt.Errorf("%w: libsql:// requires a binary built with cgo", ErrUnsupportedURL)
		}
		return driverLibSQL, rawURL, nil
	case "":
		return "", "", fmt.Errorf("%w: empty url (is DATABASE_URL set?)", ErrUnsupportedURL)
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedURL, Redact(rawURL))
	}
}

// sqlitePath turns "file:./dev.db" into an absolute path and creates its
// directory.
func sqlitePath(rawURL, schemaDir string) (string, error) {
	path := strings.TrimPrefix(rawURL, "file:")
	path = strings.TrimPrefix(path, "//")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "", fmt.Errorf("%w: missing sqlite path in %q", ErrUnsupportedURL, rawURL)
	}
	if !filepath.IsAbs(path) {
		base := schemaDir
		if base == "" {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			base = wd
		}
		path = filepath.Join(base, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}

// mysqlDSN converts a mysql:// URL into a go-sql-driver DSN.
func mysqlDSN(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	host, port := u.Hostname(), u.Port()
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "3306"
	}
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		// Prisma-specific options mean nothing to the driver.
		switch key {
		case "connection_limit", "pool_timeout", "sslaccept", "schema":
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[key] = values[0]
	}
	return cfg.FormatDSN(), nil
}
