package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/config"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Read and write project configuration",
	Long: `Read and write .nexus-prisma/config.yaml.

Every key can also be set in the environment with the NEXUS_PRISMA_ prefix,
dots and dashes replaced by underscores:
  NEXUS_PRISMA_MIGRATIONS=false
  NEXUS_PRISMA_CLIENT_DATASOURCE_URL=file:./test.db`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.AllSettings()
		if _, ok := lookup(settings, args[0]); !ok && !config.IsSet(args[0]) {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.GetString(args[0]))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a value to the project configuration",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetYamlConfig(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", ui.RenderPass("✓"), args[0], config.GetString(args[0]))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every configuration value",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if used := config.ConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "%s\n", ui.RenderMuted("# "+used))
		} else {
			fmt.Fprintf(os.Stderr, "%s\n", ui.RenderMuted("# no config file, showing defaults"))
		}
		keys := flatten("", config.AllSettings())
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(out, "%s = %s\n", key, config.GetString(key))
		}
	},
}

// flatten returns the dotted keys of nested settings maps.
func flatten(prefix string, m map[string]interface{}) []string {
	var keys []string
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			keys = append(keys, flatten(key, nested)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// lookup finds a dotted key in nested settings maps.
func lookup(m map[string]interface{}, key string) (interface{}, bool) {
	var cur interface{} = m
	for _, part := range strings.Split(key, ".") {
		nested, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = nested[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
