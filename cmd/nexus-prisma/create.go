package main

import (
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/host"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/scaffold"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:     "create",
	GroupID: "setup",
	Short:   "Create a Prisma project in the project directory",
	Long: `Create the Prisma files of a new GraphQL app:

  prisma/schema.prisma   datasource, client generator and a World model
  prisma/.env            DATABASE_URL
  prisma/seed/main.go    seeds Earth and Mars
  graphql.go             a schema and resolvers using the client

With SQLite, or when --connection-uri is given, the development database is
migrated, the client generated and the database seeded. Otherwise the steps
to do it by hand are printed.

Example usage:
  nexus-prisma create --database sqlite
  nexus-prisma create --database postgresql --connection-uri postgresql://localhost/app`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbName, _ := cmd.Flags().GetString("database")
		uri, _ := cmd.Flags().GetString("connection-uri")
		name, _ := cmd.Flags().GetString("name")

		if dbName == "" {
			return scaffold.ErrNoDatabase
		}
		database, err := scaffold.ParseDatabase(dbName)
		if err != nil {
			return err
		}

		p, err := loadProject(name)
		if err != nil {
			return err
		}
		defer p.Close()

		return host.RunCreate(cmd.Context(), p.lens, p.hooks, host.CreateContext{
			Database:      database,
			ConnectionURI: uri,
		})
	},
}

func init() {
	createCmd.Flags().String("database", "", "Database to use: sqlite, mysql or postgresql")
	createCmd.Flags().String("connection-uri", "", "Connection URI of an existing database")
	createCmd.Flags().String("name", "", "Project name, used as the Go module path")

	rootCmd.AddCommand(createCmd)
}
