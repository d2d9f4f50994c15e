package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/config"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/devfeed"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/host"
	"github.com/spf13/cobra"
)

var devCmd = &cobra.Command{
	Use:     "dev",
	GroupID: "project",
	Short:   "Run the app and restart it on changes",
	Long: `Generate the Prisma Client, start the app (dev.command, default "go run .")
and restart it when project files change.

When the Prisma schema changes the client is regenerated. With migrations
enabled you are shown the commands to create and apply a migration, and the
app restarts once you confirm.

With --feed-port, dev events are streamed as JSON over WebSocket:
  ws://localhost:<port>/ws

Only one dev session may run per project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("feed-port")

		p, err := loadProject("")
		if err != nil {
			return err
		}
		defer p.Close()

		if port > 0 {
			feed := devfeed.NewServer(&devfeed.Config{
				Addr:   fmt.Sprintf("127.0.0.1:%d", port),
				Logger: log.New(os.Stderr, "[feed] ", log.LstdFlags),
			})
			if err := feed.Start(); err != nil {
				return err
			}
			defer func() {
				if err := feed.Stop(); err != nil {
					p.lens.Log.Warn("%v", err)
				}
			}()
			p.lens.Feed = feed
		}

		err = host.RunDev(cmd.Context(), p.lens, p.hooks, host.DevOptions{
			Command: config.GetString("dev.command"),
			Grace:   config.GetDuration("dev.restart-grace"),
		})
		if errors.Is(err, host.ErrDevLocked) {
			return fmt.Errorf("%w: is another nexus-prisma dev running in %s?", err, p.lens.Layout.ProjectRoot)
		}
		return err
	},
}

func init() {
	devCmd.Flags().Int("feed-port", 0, "Stream dev events over WebSocket on this port (0 disables)")

	rootCmd.AddCommand(devCmd)
}
