package main

import (
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/config"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/host"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	GroupID: "project",
	Short:   "Run the Prisma generators",
	Long: `Run the generators of the Prisma schema, found at ./schema.prisma or
./prisma/schema.prisma. A Prisma Client generator block is added to the
schema when it has none.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject("")
		if err != nil {
			return err
		}
		defer p.Close()
		return host.RunGenerate(cmd.Context(), p.hooks)
	},
}

var buildCmd = &cobra.Command{
	Use:     "build",
	GroupID: "project",
	Short:   "Generate the Prisma Client, then build the app",
	Long: `Run the Prisma generators, then the build command
(build.command, default "go build ./...").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject("")
		if err != nil {
			return err
		}
		defer p.Close()
		return host.RunBuild(cmd.Context(), p.lens, p.hooks, config.GetString("build.command"))
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(buildCmd)
}
