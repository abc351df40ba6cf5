// ABOUTME: Play subcommand
// ABOUTME: Discovers or dials a server and runs the reconnecting player
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/config"
	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/logging"
	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/metrics"
	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/monitor"
	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/ui"
	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/version"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/output"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/discovery"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/stream"
)

func PlayCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "play",
		Aliases: []string{"p"},
		Short:   "Play a stream, discovering a server when no host is given",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPlayerConfig(*configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runPlayer(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.String("host", "", "Server address (skip discovery)")
	f.Int("port", config.DefaultDataPort, "Server TCP port")
	f.String("password", "", "Server password (defaults to the announced one)")
	f.String("codec", "raw", "Stream codec: raw, opus, opus-silk, g722, zstd")
	f.Int("rate", config.DefaultSampleRate, "Sample rate in Hz")
	f.Int("channels", config.DefaultChannels, "Channel count (1 or 2)")
	f.Int("buffer", config.DefaultBufferFrames, "Jitter buffer capacity in frames")
	f.Duration("backoff", stream.DefaultBackoff, "Delay between reconnect attempts")
	f.String("output", output.BackendOto, "Audio backend: oto, malgo, discard")
	f.Int("discovery-port", config.DefaultDiscoveryPort, "UDP port servers announce on")
	f.Duration("timeout", 10*time.Second, "How long to wait for a server announcement")
	f.Bool("mdns", false, "Also browse mDNS")
	f.String("log-file", "wifiaudiolink-player.log", "Log file path")
	f.String("log-level", "info", "Log level")
	f.Bool("no-tui", false, "Disable TUI, stream logs to the console")
	f.String("monitor-addr", "", "Serve /metrics, /status and /events on this address")
	return cmd
}

// target is the server a player session dials
type target struct {
	name       string
	host       string
	port       int
	credential string
}

func (t target) String() string {
	addr := t.host + ":" + strconv.Itoa(t.port)
	if t.name == "" {
		return addr
	}
	return fmt.Sprintf("%s (%s)", t.name, addr)
}

// targetFromRecord prefers an explicitly configured password over the
// announced one.
func targetFromRecord(rec discovery.ServerRecord, password string) target {
	credential := rec.Credential
	if password != "" {
		credential = password
	}
	return target{name: rec.Name, host: rec.Address, port: rec.Port, credential: credential}
}

func sessionConfig(cfg *config.PlayerConfig, t target, open output.Opener) stream.SessionConfig {
	return stream.SessionConfig{
		Host:           t.host,
		Port:           t.port,
		Credential:     t.credential,
		Codec:          cfg.Codec,
		SampleRate:     cfg.SampleRate,
		Channels:       cfg.Channels,
		BufferCapacity: cfg.BufferFrames,
		PollInterval:   cfg.PollInterval,
		ConnectTimeout: cfg.ConnectTimeout,
		AuthTimeout:    cfg.AuthTimeout,
		Output:         open,
	}
}

// logListener writes lifecycle events to the log
type logListener struct{}

func (logListener) OnConnected()    { log.WithField("component", "player").Info("Connected") }
func (logListener) OnDisconnected() { log.WithField("component", "player").Info("Disconnected") }
func (logListener) OnError(err error) {
	log.WithField("component", "player").WithError(err).Warn("Player error")
}

func runPlayer(parent context.Context, cfg *config.PlayerConfig) error {
	useTUI := !cfg.NoTUI

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

	open, err := output.OpenerFor(cfg.Output)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"version": version.Version,
		"format":  cfg.Format().String(),
		"output":  cfg.Output,
	}).Infof("Starting %s", version.Product)

	listeners := stream.Multi{logListener{}}
	var client *stream.Client
	stats := metrics.StatsFunc(func() stream.Stats { return client.Stats() })

	var prog *tea.Program
	var controls *ui.Controls
	if useTUI {
		controls = ui.NewControls()
		prog = ui.NewPlayer(ui.Options{
			Format:   cfg.Format(),
			Capacity: cfg.BufferFrames,
			Stats:    stats,
			Controls: controls,
		})
		listeners = append(listeners, ui.Bridge{Program: prog})
	}

	var mon *monitor.Monitor
	if cfg.MonitorAddr != "" {
		mon = monitor.New(stats)
		listeners = append(listeners, mon)
	}

	client = stream.NewClient(listeners, stream.WithBackoff(cfg.Backoff))

	tuiDone := make(chan struct{})
	if prog != nil {
		go func() {
			defer close(tuiDone)
			if _, err := prog.Run(); err != nil {
				log.WithError(err).Error("TUI failed")
			}
		}()
		defer func() {
			prog.Quit()
			<-tuiDone
		}()
	}

	if mon != nil {
		if err := mon.Start(cfg.MonitorAddr); err != nil {
			return fmt.Errorf("failed to start monitor: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = mon.Shutdown(shutdownCtx)
		}()
	}

	notify := func(msg tea.Msg) {
		if prog != nil {
			prog.Send(msg)
		}
	}

	t := target{host: cfg.Host, port: cfg.Port, credential: cfg.Password}
	if cfg.Host == "" {
		dir := discovery.NewDirectory(discovery.Config{Port: cfg.DiscoveryPort, MDNS: cfg.MDNS})
		if err := dir.Listen(); err != nil {
			return err
		}
		defer dir.Stop()

		log.WithField("port", cfg.DiscoveryPort).Info("Starting server discovery...")
		rec, err := discovery.WaitForServer(ctx, dir, cfg.DiscoveryTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("no server found after %s: %w", cfg.DiscoveryTimeout, err)
		}
		t = targetFromRecord(rec, cfg.Password)
		log.WithField("server", t.String()).Info("Discovered server")

		notify(ui.ServerMsg(rec))
		go func() {
			for rec := range dir.Servers() {
				log.WithField("server", rec.String()).Debug("Discovered server")
				notify(ui.ServerMsg(rec))
			}
		}()
	}
	notify(ui.StatusMsg{Server: t.String(), Format: cfg.Format(), Capacity: cfg.BufferFrames})

	session := sessionConfig(cfg, t, open)
	if err := client.Start(session); err != nil {
		return err
	}
	defer func() {
		client.Stop()
		client.Wait()
	}()

	var reconnect, quit chan struct{}
	if controls != nil {
		reconnect, quit = controls.Reconnect, controls.Quit
	}
	for {
		select {
		case <-ctx.Done():
			log.Info("Shutdown signal received")
			return nil
		case <-quit:
			log.Info("Received quit signal from TUI")
			return nil
		case <-tuiDone:
			return nil
		case <-reconnect:
			log.Info("Reconnect requested")
			client.Stop()
			client.Wait()
			if err := client.Start(session); err != nil {
				return err
			}
		}
	}
}
