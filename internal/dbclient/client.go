// Package dbclient opens the database named by a Prisma datasource URL.
//
// The driver is chosen from the URL scheme:
//
//	file:./dev.db                      SQLite (ncruces/go-sqlite3, WAL mode)
//	libsql://db.turso.io?authToken=…   libSQL (cgo builds only)
//	postgresql://user:pw@host/db       PostgreSQL (pgx)
//	mysql://user:pw@host:3306/db       MySQL (go-sql-driver)
//
// Relative SQLite paths resolve against the schema directory, the same way
// the Prisma CLI resolves them.
package dbclient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrUnsupportedURL is returned for datasource URLs no driver handles.
var ErrUnsupportedURL = errors.New("unsupported datasource url")

// Options configures Open.
type Options struct {
	// SchemaDir anchors relative SQLite paths. Defaults to the working
	// directory.
	SchemaDir string

	// MaxOpenConns bounds the pool. Zero means 10.
	MaxOpenConns int

	// PingTimeout bounds the connection retries. Zero means 10s.
	PingTimeout time.Duration
}

// Client is an open database handle.
type Client struct {
	conn   *sql.DB
	driver string
	source string
}

// Open connects to the database at rawURL and checks the connection.
//
// The caller MUST call Close() when done.
func Open(ctx context.Context, rawURL string, opts Options) (*Client, error) {
	driver, dsn, err := resolve(rawURL, opts)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c := &Client{conn: conn, driver: driver, source: Redact(rawURL)}

	n := opts.MaxOpenConns
	if n <= 0 {
		n = 10
	}
	conn.SetMaxOpenConns(n)
	conn.SetMaxIdleConns(n / 2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := pingWithRetry(ctx, conn, timeout); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", c.source, err)
	}
	return c, nil
}

// DB returns the underlying sql.DB.
func (c *Client) DB() *sql.DB { return c.conn }

// Driver returns the database/sql driver name in use.
func (c *Client) Driver() string { return c.driver }

// String returns the datasource URL with credentials removed.
func (c *Client) String() string { return c.source }

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}

// Close closes the connection. SQLite databases are checkpointed first.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	if c.driver == driverSQLite {
		if _, err := c.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
		}
	}

	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	c.conn = nil
	return nil
}

// Redact removes the password and auth token from a datasource URL.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Opaque != "" {
		return rawURL
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	if q := u.Query(); q.Has("authToken") {
		q.Set("authToken", "xxxxx")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Scheme returns the lowercased URL scheme of a datasource URL.
func Scheme(rawURL string) string {
	scheme, _, ok := strings.Cut(rawURL, ":")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}
