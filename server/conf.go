// Package server holds the configuration of the eralobby binary: the
// Dragonfly user configuration and the sections added for the lobby.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	dfserver "github.com/df-mc/dragonfly/server"
	"github.com/pelletier/go-toml"
)

// Extension holds the sections of config.toml that Dragonfly does not know
// about.
type Extension struct {
	Log struct {
		// Level is one of debug, info, warn or error.
		Level string
	}
	Lobby struct {
		// WorldsFolder is the folder holding the lobby and era worlds.
		WorldsFolder string
		// OperatorsFile is the TOML file listing the server operators.
		OperatorsFile string
	}
	Whitelist struct {
		// Enabled restricts joining to the players listed in File.
		Enabled bool
		File    string
	}
	Query struct {
		// Enabled answers server list queries on the network port.
		Enabled bool
		// MOTD is the secondary name reported to query clients.
		MOTD string
	}
	Plugins struct {
		// Enabled controls whether the compiled-in plugins are enabled.
		Enabled bool
		// Directory is the root of the plugin data directories.
		Directory string
	}
}

// Config is the content of config.toml. Both parts are read from, and
// written to, the same document.
type Config struct {
	Dragonfly dfserver.UserConfig
	Extension
}

// Env lists the environment variables that override config.toml.
type Env struct {
	ConfigFile string `env:"ERALOBBY_CONFIG" envDefault:"config.toml"`
	LogLevel   string `env:"ERALOBBY_LOG_LEVEL"`
	Address    string `env:"ERALOBBY_ADDRESS"`
	DataDir    string `env:"ERALOBBY_DATA_DIR"`
}

// ParseEnv loads the overrides from the environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() Config {
	c := Config{Dragonfly: dfserver.DefaultConfig()}
	c.Dragonfly.Server.Name = "Arte da Guerra"
	c.Log.Level = "info"
	c.Lobby.WorldsFolder = "worlds"
	c.Lobby.OperatorsFile = "operators.toml"
	c.Whitelist.File = "whitelist.toml"
	c.Query.Enabled = true
	c.Query.MOTD = "Lobby das 7 Eras"
	c.Plugins.Enabled = true
	c.Plugins.Directory = "plugins"
	return c
}

// LoadConfig reads path, writing the default configuration to it first when
// it does not exist.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		data, err := c.Marshal()
		if err != nil {
			return c, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return c, fmt.Errorf("write default config: %w", err)
		}
		return c, nil
	} else if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c.Dragonfly); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	if err := toml.Unmarshal(data, &c.Extension); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// Marshal encodes c as a single TOML document.
func (c Config) Marshal() ([]byte, error) {
	base, err := toml.Marshal(c.Dragonfly)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	ext, err := toml.Marshal(c.Extension)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var buf bytes.Buffer
	buf.Write(bytes.TrimRight(base, "\n"))
	buf.WriteString("\n\n")
	buf.Write(ext)
	return buf.Bytes(), nil
}

// Apply copies the non-empty overrides of e onto c.
func (c *Config) Apply(e Env) {
	if e.LogLevel != "" {
		c.Log.Level = e.LogLevel
	}
	if e.Address != "" {
		c.Dragonfly.Network.Address = e.Address
	}
	if e.DataDir != "" {
		c.Plugins.Directory = e.DataDir
	}
}

// LogLevel parses the configured log level, defaulting to info.
func (c Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ServerConfig converts the Dragonfly part of c to a server configuration.
func (c Config) ServerConfig(log *slog.Logger) (dfserver.Config, error) {
	conf, err := c.Dragonfly.Config(log)
	if err != nil {
		return conf, fmt.Errorf("server config: %w", err)
	}
	return conf, nil
}
