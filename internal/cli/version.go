// ABOUTME: Version subcommand
// ABOUTME: Prints product name and version
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/version"
)

func VersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", version.Product, version.Version, version.Manufacturer)
			return err
		},
	}
}
