// ABOUTME: Player and server configuration loading
// ABOUTME: Layers flags, environment, TOML files and defaults with viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults shared by player and server.
const (
	DefaultDataPort      = 8765
	DefaultDiscoveryPort = 8766
	DefaultSampleRate    = 48000
	DefaultChannels      = 2
	DefaultBufferFrames  = 12
	DefaultChunkFrames   = 1024
)

// PlayerConfig configures the wifiaudiolink player
type PlayerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`

	Codec      string `mapstructure:"codec"`
	SampleRate int    `mapstructure:"sample_rate"`
	Channels   int    `mapstructure:"channels"`

	BufferFrames   int           `mapstructure:"buffer_frames"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Backoff        time.Duration `mapstructure:"backoff"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AuthTimeout    time.Duration `mapstructure:"auth_timeout"`
	Output         string        `mapstructure:"output"`

	DiscoveryPort    int           `mapstructure:"discovery_port"`
	DiscoveryTimeout time.Duration `mapstructure:"discovery_timeout"`
	MDNS             bool          `mapstructure:"mdns"`

	LogFile     string `mapstructure:"log_file"`
	LogLevel    string `mapstructure:"log_level"`
	NoTUI       bool   `mapstructure:"no_tui"`
	MonitorAddr string `mapstructure:"monitor_addr"`
}

// ServerConfig configures the companion streaming server
type ServerConfig struct {
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`

	Codec       string `mapstructure:"codec"`
	SampleRate  int    `mapstructure:"sample_rate"`
	Channels    int    `mapstructure:"channels"`
	ChunkFrames int    `mapstructure:"chunk_frames"`
	Source      string `mapstructure:"source"` // "tone" or a .mp3/.flac path
	ToneHz      int    `mapstructure:"tone_hz"`

	DiscoveryPort    int           `mapstructure:"discovery_port"`
	AnnounceInterval time.Duration `mapstructure:"announce_interval"`
	MDNS             bool          `mapstructure:"mdns"`

	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`
}

// LoadPlayerConfig reads player.toml from configPath, ~/.wifiaudiolink or
// the working directory, then WIFIAUDIOLINK_PLAYER_* variables, then any
// changed flags in flags (which may be nil).
func LoadPlayerConfig(configPath string, flags *pflag.FlagSet) (*PlayerConfig, error) {
	v, err := initViper(configPath, "player", "WIFIAUDIOLINK_PLAYER")
	if err != nil {
		return nil, err
	}

	v.SetDefault("host", "")
	v.SetDefault("port", DefaultDataPort)
	v.SetDefault("password", "")
	v.SetDefault("codec", audio.CodecRaw)
	v.SetDefault("sample_rate", DefaultSampleRate)
	v.SetDefault("channels", DefaultChannels)
	v.SetDefault("buffer_frames", DefaultBufferFrames)
	v.SetDefault("poll_interval", 50*time.Millisecond)
	v.SetDefault("backoff", 2*time.Second)
	v.SetDefault("connect_timeout", 2*time.Second)
	v.SetDefault("auth_timeout", 3*time.Second)
	v.SetDefault("output", "oto")
	v.SetDefault("discovery_port", DefaultDiscoveryPort)
	v.SetDefault("discovery_timeout", 10*time.Second)
	v.SetDefault("mdns", false)
	v.SetDefault("log_file", "wifiaudiolink-player.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("no_tui", false)
	v.SetDefault("monitor_addr", "")

	if err := bindFlags(v, flags, map[string]string{
		"host":              "host",
		"port":              "port",
		"password":          "password",
		"codec":             "codec",
		"sample_rate":       "rate",
		"channels":          "channels",
		"buffer_frames":     "buffer",
		"backoff":           "backoff",
		"output":            "output",
		"discovery_port":    "discovery-port",
		"discovery_timeout": "timeout",
		"mdns":              "mdns",
		"log_file":          "log-file",
		"log_level":         "log-level",
		"no_tui":            "no-tui",
		"monitor_addr":      "monitor-addr",
	}); err != nil {
		return nil, err
	}

	var cfg PlayerConfig
	if err := readInto(v, &cfg); err != nil {
		return nil, err
	}
	cfg.LogFile = expandPath(cfg.LogFile)

	return &cfg, nil
}

// LoadServerConfig reads server.toml the same way, with the
// WIFIAUDIOLINK_SERVER_ environment prefix.
func LoadServerConfig(configPath string, flags *pflag.FlagSet) (*ServerConfig, error) {
	v, err := initViper(configPath, "server", "WIFIAUDIOLINK_SERVER")
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "wifiaudiolink"
	}

	v.SetDefault("name", hostname)
	v.SetDefault("port", DefaultDataPort)
	v.SetDefault("password", "")
	v.SetDefault("codec", audio.CodecRaw)
	v.SetDefault("sample_rate", DefaultSampleRate)
	v.SetDefault("channels", DefaultChannels)
	v.SetDefault("chunk_frames", DefaultChunkFrames)
	v.SetDefault("source", "tone")
	v.SetDefault("tone_hz", 440)
	v.SetDefault("discovery_port", DefaultDiscoveryPort)
	v.SetDefault("announce_interval", 2*time.Second)
	v.SetDefault("mdns", false)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")

	if err := bindFlags(v, flags, map[string]string{
		"name":              "name",
		"port":              "port",
		"password":          "password",
		"codec":             "codec",
		"sample_rate":       "rate",
		"channels":          "channels",
		"chunk_frames":      "chunk",
		"source":            "source",
		"tone_hz":           "tone-hz",
		"discovery_port":    "discovery-port",
		"announce_interval": "interval",
		"mdns":              "mdns",
		"log_file":          "log-file",
		"log_level":         "log-level",
	}); err != nil {
		return nil, err
	}

	var cfg ServerConfig
	if err := readInto(v, &cfg); err != nil {
		return nil, err
	}
	cfg.LogFile = expandPath(cfg.LogFile)
	if cfg.Source != "tone" {
		cfg.Source = expandPath(cfg.Source)
	}

	return &cfg, nil
}

// Format returns the stream format the player expects.
func (c *PlayerConfig) Format() audio.Format {
	return audio.Format{Codec: c.Codec, SampleRate: c.SampleRate, Channels: c.Channels, BitDepth: 16}
}

// Validate rejects settings the player cannot run with.
func (c *PlayerConfig) Validate() error {
	if err := c.Format().Validate(); err != nil {
		return err
	}
	if err := validPort("port", c.Port); err != nil {
		return err
	}
	if err := validPort("discovery_port", c.DiscoveryPort); err != nil {
		return err
	}
	if c.BufferFrames < 1 {
		return fmt.Errorf("buffer_frames must be at least 1, got %d", c.BufferFrames)
	}
	if c.Backoff <= 0 {
		return fmt.Errorf("backoff must be positive, got %s", c.Backoff)
	}
	return nil
}

// Format returns the stream format the server sends.
func (c *ServerConfig) Format() audio.Format {
	return audio.Format{Codec: c.Codec, SampleRate: c.SampleRate, Channels: c.Channels, BitDepth: 16}
}

// Validate rejects settings the server cannot run with.
func (c *ServerConfig) Validate() error {
	if err := c.Format().Validate(); err != nil {
		return err
	}
	if err := validPort("port", c.Port); err != nil {
		return err
	}
	if err := validPort("discovery_port", c.DiscoveryPort); err != nil {
		return err
	}
	if c.ChunkFrames < 1 {
		return fmt.Errorf("chunk_frames must be at least 1, got %d", c.ChunkFrames)
	}
	if strings.ContainsRune(c.Name, ';') {
		return fmt.Errorf("name must not contain ';': %q", c.Name)
	}
	return nil
}

func validPort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s out of range: %d", key, port)
	}
	return nil
}

func initViper(configPath, defaultName, envPrefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".wifiaudiolink"))
		}
		v.AddConfigPath(".")
		v.SetConfigName(defaultName)
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// bindFlags binds config keys to the named flags that exist in flags.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	if flags == nil {
		return nil
	}
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func readInto(v *viper.Viper, out any) error {
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
