package config

import "go.uber.org/fx"

var Module = fx.Module("config", fx.Provide(
	// Variables from .env are only consulted for names the process environment
	// does not define.
	func() (Env, error) {
		return LoadEnv(DotEnvFile)
	},
	// The root command fills the shared Config from its global flags before any
	// subcommand runs.
	func() *Config {
		return new(Config)
	},
))
