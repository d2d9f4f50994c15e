// Package settings holds the options an app passes to the Prisma plugin.
package settings

import (
	"errors"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/config"
)

// ClientSetting configures the database client. It is either
// ClientOptions or ClientInstance.
type ClientSetting interface {
	clientSetting()
}

// ClientOptions are used when the plugin opens the client itself.
// To hand over a client you built, use ClientInstance instead.
type ClientOptions struct {
	// DatasourceURL overrides DATABASE_URL.
	DatasourceURL string

	// MaxOpenConns bounds the connection pool. Zero keeps the default.
	MaxOpenConns int
}

// ClientInstance hands a client you built to the plugin.
// To only pass options to the client the plugin opens, use ClientOptions.
type ClientInstance struct {
	Instance any
}

func (ClientOptions) clientSetting()  {}
func (ClientInstance) clientSetting() {}

// Settings are the plugin settings.
type Settings struct {
	// Client configures the database client. Nil means default options.
	Client ClientSetting

	// Migrations enables the migration prompt shown when the schema file
	// changes. Nil means true.
	Migrations *bool
}

// ErrNilInstance is returned when ClientInstance carries no client.
var ErrNilInstance = errors.New("client instance is nil")

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// MigrationsEnabled reports whether migrations are enabled.
func (s Settings) MigrationsEnabled() bool {
	return s.Migrations == nil || *s.Migrations
}

// Options returns the client options, or false when an instance was given.
func (s Settings) Options() (ClientOptions, bool) {
	switch c := s.Client.(type) {
	case nil:
		return ClientOptions{}, true
	case ClientOptions:
		return c, true
	case *ClientOptions:
		if c == nil {
			return ClientOptions{}, true
		}
		return *c, true
	default:
		return ClientOptions{}, false
	}
}

// Instance returns the client instance, if one was given.
func (s Settings) Instance() (any, bool) {
	switch c := s.Client.(type) {
	case ClientInstance:
		return c.Instance, true
	case *ClientInstance:
		if c != nil {
			return c.Instance, true
		}
	}
	return nil, false
}

// Validate checks that a given instance is not nil.
func (s Settings) Validate() error {
	if inst, ok := s.Instance(); ok && inst == nil {
		return ErrNilInstance
	}
	return nil
}

// FromConfig reads settings from the project configuration: keys
// "migrations", "client.datasource-url" and "client.max-open-conns".
func FromConfig() Settings {
	s := Settings{
		Client: ClientOptions{
			DatasourceURL: config.GetString("client.datasource-url"),
			MaxOpenConns:  config.GetInt("client.max-open-conns"),
		},
	}
	if config.IsSet("migrations") {
		s.Migrations = Bool(config.GetBool("migrations"))
	}
	return s
}
