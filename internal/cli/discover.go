// ABOUTME: Discover subcommand
// ABOUTME: Listens for server announcements and prints them as a table
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/config"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/discovery"
)

func DiscoverCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "discover",
		Aliases: []string{"d", "ls"},
		Short:   "List servers announcing on the local network",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPlayerConfig(*configPath, cmd.Flags())
			if err != nil {
				return err
			}

			dir := discovery.NewDirectory(discovery.Config{Port: cfg.DiscoveryPort, MDNS: cfg.MDNS})
			if err := dir.Listen(); err != nil {
				return err
			}
			defer dir.Stop()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.DiscoveryTimeout)
			defer cancel()
			<-ctx.Done()

			return printServers(cmd.OutOrStdout(), dir.Records())
		},
	}

	cmd.Flags().Duration("timeout", 3*time.Second, "How long to listen for announcements")
	cmd.Flags().Int("discovery-port", config.DefaultDiscoveryPort, "UDP port servers announce on")
	cmd.Flags().Bool("mdns", false, "Also browse mDNS")
	return cmd
}

func printServers(w io.Writer, records []discovery.ServerRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No servers found")
		return err
	}

	tableData := [][]string{
		{"Name", "Address", "Port", "Password"},
	}
	for _, rec := range records {
		password := "no"
		if rec.Credential != "" {
			password = "yes"
		}
		tableData = append(tableData, []string{rec.Name, rec.Address, strconv.Itoa(rec.Port), password})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}
