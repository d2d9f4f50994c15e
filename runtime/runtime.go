// Package runtime is the part of the plugin an app links in: it puts the
// database client into each request context and checks the fields the app
// exposes against the Prisma schema.
package runtime

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/generator"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/logging"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/psl"
	"github.com/graphql-nexus/nexus-plugin-prisma/settings"
)

// ContextKey is the key the client is stored under, in both the map
// returned by Create and the type-gen fields.
const ContextKey = "db"

// TypeGenAlias is the import alias of the generated client package.
const TypeGenAlias = "prisma"

// Contribution is what the plugin adds to an app.
type Contribution struct {
	Context ContextContribution
	Schema  SchemaContribution
}

// ContextContribution adds the client to request contexts.
type ContextContribution struct {
	client any

	// TypeGenFields maps context fields to their Go types.
	TypeGenFields map[string]string
}

// Create returns the context values for r.
func (c ContextContribution) Create(_ *http.Request) map[string]any {
	return map[string]any{ContextKey: c.client}
}

// Middleware stores the client in each request context. Handlers read it
// back with DB.
func (c ContextContribution) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithDB(r.Context(), c.client)))
	})
}

// TypeGenSource points type generation at a generated package.
type TypeGenSource struct {
	Source string
	Alias  string
}

// SchemaContribution holds what the plugin adds to the GraphQL schema.
type SchemaContribution struct {
	TypeGenSources []TypeGenSource

	// Checker is nil when no Prisma schema was found.
	Checker *FieldChecker
}

// Options configures New.
type Options struct {
	// ProjectRoot is searched for the Prisma schema. Defaults to the
	// working directory.
	ProjectRoot string

	// Warnings receives schema warnings. Defaults to os.Stdout.
	Warnings io.Writer

	// Log receives diagnostics. Defaults to a "prisma" logger on stderr.
	Log *logging.Logger
}

// Plugin builds the runtime contribution for the app in the working
// directory.
func Plugin(ctx context.Context, s settings.Settings) (*Contribution, error) {
	return New(ctx, s, Options{})
}

// New builds the runtime contribution.
func New(ctx context.Context, s settings.Settings, opts Options) (*Contribution, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if opts.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts.ProjectRoot = wd
	}
	if opts.Warnings == nil {
		opts.Warnings = os.Stdout
	}
	if opts.Log == nil {
		opts.Log = logging.New(logging.Options{Name: "prisma"})
	}

	client, err := clientFor(ctx, s, opts.ProjectRoot, opts.Log)
	if err != nil {
		return nil, err
	}

	c := &Contribution{
		Context: ContextContribution{
			client:        client,
			TypeGenFields: map[string]string{ContextKey: "*db.PrismaClient"},
		},
	}

	schemaPath, err := generator.FindSchema(opts.ProjectRoot)
	var notFound *generator.SchemaNotFoundError
	switch {
	case errors.As(err, &notFound):
		opts.Log.Trace("no Prisma schema found, field checks disabled")
		return c, nil
	case err != nil:
		return nil, err
	}

	schema, err := psl.ParseFile(schemaPath)
	if err != nil {
		return nil, err
	}
	c.Schema.Checker = NewFieldChecker(schema, opts.Warnings)

	if dir, err := generator.ClientDir(schemaPath); err == nil {
		c.Context.TypeGenFields[ContextKey] = "*" + filepath.Base(dir) + ".PrismaClient"
		c.Schema.TypeGenSources = []TypeGenSource{{Source: dir, Alias: TypeGenAlias}}
	}
	return c, nil
}

type contextKey struct{}

// WithDB returns a copy of ctx carrying client.
func WithDB(ctx context.Context, client any) context.Context {
	return context.WithValue(ctx, contextKey{}, client)
}

// DB returns the client stored by Middleware, or nil.
func DB(ctx context.Context) any {
	return ctx.Value(contextKey{})
}
