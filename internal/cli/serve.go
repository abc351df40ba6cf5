// ABOUTME: Serve subcommand
// ABOUTME: Runs the companion streaming server with discovery announcements
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/config"
	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/logging"
	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/ui"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/server"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/server/source"
)

func ServeCommand(configPath *string) *cobra.Command {
	var useTUI bool

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s", "server"},
		Short:   "Run a streaming server on this machine",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig(*configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cmd.Context(), cmd.OutOrStdout(), cfg, useTUI)
		},
	}

	f := cmd.Flags()
	f.String("name", "", "Announced server name (default: hostname)")
	f.Int("port", config.DefaultDataPort, "TCP data port")
	f.String("password", "", "Password players must send")
	f.String("codec", "raw", "Stream codec: raw, opus, opus-silk, g722, zstd")
	f.Int("rate", config.DefaultSampleRate, "Sample rate in Hz")
	f.Int("channels", config.DefaultChannels, "Channel count (1 or 2)")
	f.Int("chunk", config.DefaultChunkFrames, "PCM frames per chunk")
	f.String("source", "tone", "Audio source: tone or an .mp3/.flac file")
	f.Int("tone-hz", 440, "Test tone pitch")
	f.Int("discovery-port", config.DefaultDiscoveryPort, "UDP port to announce on")
	f.Duration("interval", 2*time.Second, "Announcement interval")
	f.Bool("mdns", false, "Also advertise over mDNS")
	f.String("log-file", "", "Log file path")
	f.String("log-level", "info", "Log level")
	f.BoolVar(&useTUI, "tui", false, "Show a status screen instead of console logs")
	return cmd
}

func serverConfig(cfg *config.ServerConfig, src source.Source) server.Config {
	return server.Config{
		Name:             cfg.Name,
		Port:             cfg.Port,
		Password:         cfg.Password,
		Format:           cfg.Format(),
		ChunkFrames:      cfg.ChunkFrames,
		Source:           src,
		Announce:         true,
		AnnounceInterval: cfg.AnnounceInterval,
		DiscoveryPort:    cfg.DiscoveryPort,
		MDNS:             cfg.MDNS,
	}
}

func runServer(parent context.Context, out io.Writer, cfg *config.ServerConfig, useTUI bool) error {
	closer, err := logging.Setup(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: !useTUI,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := source.Open(source.Options{
		Path:       cfg.Source,
		ToneHz:     float64(cfg.ToneHz),
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(serverConfig(cfg, src))
	if err != nil {
		src.Close()
		return err
	}
	if err := srv.Listen(); err != nil {
		src.Close()
		return err
	}

	if useTUI {
		controls := ui.NewControls()
		prog := ui.NewServer(ui.ServerOptions{
			Name:     cfg.Name,
			Port:     srv.Port(),
			Format:   cfg.Format().String(),
			Source:   src.Name(),
			Server:   srv,
			Controls: controls,
		})

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-controls.Quit:
				cancel()
			case <-ctx.Done():
			}
		}()

		tuiDone := make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := prog.Run(); err != nil {
				log.WithError(err).Error("TUI failed")
			}
			cancel()
		}()

		err := srv.Run(ctx)
		prog.Quit()
		<-tuiDone
		return err
	}

	printBanner(out, cfg, srv.Port(), src.Name())
	return srv.Run(ctx)
}

func printBanner(w io.Writer, cfg *config.ServerConfig, port int, sourceName string) {
	password := "none"
	if cfg.Password != "" {
		password = "required"
	}
	header := pterm.DefaultHeader.WithFullWidth(false).Sprint("WiFiAudioLink Server")
	table, err := pterm.DefaultTable.WithData([][]string{
		{"Name", cfg.Name},
		{"Port", strconv.Itoa(port)},
		{"Format", cfg.Format().String()},
		{"Source", sourceName},
		{"Password", password},
		{"Discovery", fmt.Sprintf("udp/%d every %s", cfg.DiscoveryPort, cfg.AnnounceInterval)},
	}).Srender()
	if err != nil {
		return
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, table)
}
