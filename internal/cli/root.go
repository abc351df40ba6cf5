// ABOUTME: Cobra root command for the wifiaudiolink binary
// ABOUTME: Registers play, discover, serve and version subcommands
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "wifiaudiolink",
		Short: "wifiaudiolink streams audio across the local network",
		Long: `wifiaudiolink plays a live PCM or compressed audio stream from a LAN server.
Servers are discovered by UDP broadcast; dropped connections are retried until you stop the player.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (TOML)")

	rootCmd.AddCommand(PlayCommand(&configPath))
	rootCmd.AddCommand(DiscoverCommand(&configPath))
	rootCmd.AddCommand(ServeCommand(&configPath))
	rootCmd.AddCommand(VersionCommand())

	return rootCmd
}

// NewServerCommand builds the standalone wifiaudiolink-server command
func NewServerCommand() *cobra.Command {
	var configPath string

	cmd := ServeCommand(&configPath)
	cmd.Use = "wifiaudiolink-server"
	cmd.Aliases = nil
	cmd.SilenceUsage = true
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (TOML)")
	cmd.AddCommand(VersionCommand())
	return cmd
}
