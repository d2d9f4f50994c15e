// Command nexus-prisma runs the Prisma plugin hooks for a GraphQL app:
// project creation, client generation, builds and the dev loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/config"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/debug"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/execx"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/ui"
	"github.com/spf13/cobra"
)

var (
	verboseFlag bool
	quietFlag   bool
	dirFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "nexus-prisma",
	Short: "Prisma for GraphQL apps in Go",
	Long: `nexus-prisma creates, generates, builds and runs GraphQL apps backed by Prisma.

While "nexus-prisma dev" runs, changes to schema.prisma or prisma/schema.prisma
regenerate the Prisma Client and restart the app once your migration is applied.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		ui.Init()

		root, err := filepath.Abs(dirFlag)
		if err != nil {
			return err
		}
		return config.Initialize(root)
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "project", Title: "Project Commands:"},
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
	)
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable trace output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only print warnings and errors")
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "C", ".", "Project root directory")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode passes a failed tool's exit status through; anything else is 1.
func exitCode(err error) int {
	var cmdErr *execx.CommandError
	if errors.As(err, &cmdErr) {
		if code := execx.GetExitCode(cmdErr.Err); code > 0 {
			return code
		}
	}
	return 1
}
