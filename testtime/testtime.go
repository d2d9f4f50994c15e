// Package testtime gives tests the database client the app uses.
package testtime

import (
	"context"
	"os"

	"github.com/graphql-nexus/nexus-plugin-prisma/runtime"
	"github.com/graphql-nexus/nexus-plugin-prisma/settings"
)

// AppDB is the database part of App.
type AppDB struct {
	Client any
}

// App is what the plugin adds to the app under test.
type App struct {
	DB AppDB
}

// Plugin returns the app contribution for the project in the working
// directory.
func Plugin(ctx context.Context, s settings.Settings) (*App, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return New(ctx, s, wd)
}

// New returns the app contribution for the project at projectRoot. The
// client is the one the runtime plugin uses.
func New(ctx context.Context, s settings.Settings, projectRoot string) (*App, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	client, err := runtime.Client(ctx, s, projectRoot)
	if err != nil {
		return nil, err
	}
	return &App{DB: AppDB{Client: client}}, nil
}
