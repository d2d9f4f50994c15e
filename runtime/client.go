package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/dbclient"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/generator"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/logging"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/psl"
	"github.com/graphql-nexus/nexus-plugin-prisma/settings"
)

// Conn is the client opened when the app does not hand one over.
type Conn = dbclient.Client

// ErrNoDatasource is returned when no datasource URL can be found.
var ErrNoDatasource = errors.New("no datasource url: set DATABASE_URL or the datasource url in your Prisma schema")

// shared is the one client per process, used by both the runtime and the
// testtime plugins.
var shared struct {
	mu   sync.Mutex
	conn *Conn
}

// Client returns the client for s. A client instance in s is returned as
// is. Otherwise the process-wide client is opened on first use, from the
// datasource URL in s or the schema under projectRoot.
func Client(ctx context.Context, s settings.Settings, projectRoot string) (any, error) {
	return clientFor(ctx, s, projectRoot, logging.New(logging.Options{Name: "prisma"}))
}

func clientFor(ctx context.Context, s settings.Settings, projectRoot string, log *logging.Logger) (any, error) {
	if inst, ok := s.Instance(); ok {
		if inst == nil {
			return nil, settings.ErrNilInstance
		}
		return inst, nil
	}
	opts, _ := s.Options()

	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.conn != nil {
		return shared.conn, nil
	}

	url, schemaDir, err := datasource(opts, projectRoot, log)
	if err != nil {
		return nil, err
	}
	conn, err := dbclient.Open(ctx, url, dbclient.Options{
		SchemaDir:    schemaDir,
		MaxOpenConns: opts.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	log.Trace("opened %s", conn)
	shared.conn = conn
	return conn, nil
}

// CloseClient closes the process-wide client. The next Client call opens a
// new one.
func CloseClient() error {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.conn == nil {
		return nil
	}
	err := shared.conn.Close()
	shared.conn = nil
	return err
}

// datasource finds the URL to connect to and the directory relative
// SQLite paths resolve against.
func datasource(opts settings.ClientOptions, projectRoot string, log *logging.Logger) (string, string, error) {
	schemaPath, findErr := generator.FindSchema(projectRoot)
	schemaDir := projectRoot
	if findErr == nil {
		schemaDir = filepath.Dir(schemaPath)
		if _, err := generator.LoadEnv(log, schemaPath, projectRoot); err != nil {
			return "", "", err
		}
	}

	if opts.DatasourceURL != "" {
		return opts.DatasourceURL, schemaDir, nil
	}

	if findErr == nil {
		schema, err := psl.ParseFile(schemaPath)
		if err != nil {
			return "", "", err
		}
		for _, ds := range schema.Datasources {
			if name, ok := ds.EnvVar("url"); ok {
				if url := os.Getenv(name); url != "" {
					return url, schemaDir, nil
				}
				return "", "", fmt.Errorf("environment variable %s used by datasource %s is not set", name, ds.Name)
			}
			if url := ds.Value("url"); url != "" {
				return url, schemaDir, nil
			}
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, schemaDir, nil
	}
	return "", "", ErrNoDatasource
}
