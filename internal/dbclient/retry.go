package dbclient

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// isRetryableError reports transient connection errors: the database may
// still be starting, or a pooled connection went stale.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"driver: bad connection",
		"invalid connection",
		"broken pipe",
		"connection reset",
		"connection refused",
		"lost connection",
		"gone away",
		"i/o timeout",
		"the database system is starting up",
		"database is locked",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

func pingWithRetry(ctx context.Context, conn *sql.DB, maxElapsed time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = maxElapsed
	return backoff.Retry(func() error {
		err := conn.PingContext(ctx)
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}
