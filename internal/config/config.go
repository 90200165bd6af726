// Package config defines the top-level kong CLI surface: the command
// tree and the flags loaded from JSON/YAML/TOML ahead of flags/env, the
// same layering cmd/padlink/padlink.go assembles with kong-yaml/kong-toml.
package config

import "github.com/padlink/padlink/internal/cmd"

// CLI is the root kong command. Subcommands live in internal/cmd so that
// config (pure flag/struct definitions) never imports the packages that
// actually run the server.
type CLI struct {
	Log Log `embed:"" prefix:"log."`

	Server cmd.Server        `cmd:"" help:"Run the controller translation engine."`
	Config cmd.ConfigCommand `cmd:"" help:"Configuration file utilities."`
}

// Log groups the logging flags shared by every subcommand.
type Log struct {
	Level   string `help:"Log level (trace, debug, info, warn, error)." default:"info" enum:"trace,debug,info,warn,error" env:"PADLINK_LOG_LEVEL"`
	File    string `help:"Write logs to this file instead of stdout/stderr."`
	RawFile string `help:"Write raw hex-dumped wire traffic to this file (USB-IP connection bytes)."`
}
