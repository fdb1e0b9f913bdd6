package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/config"
	"github.com/pseudomuto/transformctl/pkg/consts"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Config     *config.Config
		Ctx        context.Context
		Env        config.Env
		Lifecycle  fx.Lifecycle
		Logger     *zap.Logger
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates the transformctl CLI application and executes it once the fx
// application has started. The process exit code is 1 when the command fails
// and 0 otherwise.
//
// Global flags populate the shared *config.Config. Each one can also be set
// through a TRANSFORMATIONS_ environment variable or a .env file in the
// working directory:
//
//   - --cluster: platform cluster (TRANSFORMATIONS_CLUSTER, default europe-west1-1)
//   - --api-key: API key (TRANSFORMATIONS_API_KEY)
//   - --client-id, --client-secret, --token-url: OAuth2 client credentials
//   - --scopes: comma separated OAuth2 scopes (TRANSFORMATIONS_SCOPES)
//   - --audience: OAuth2 audience (TRANSFORMATIONS_AUDIENCE)
//   - --cdf-project-name: project name (TRANSFORMATIONS_PROJECT)
//   - --timeout: per request timeout (TRANSFORMATIONS_TIMEOUT, default 60s)
//
// Example usage:
//
//	transformctl --api-key $KEY --cdf-project-name my-project deploy --path ./transformations
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := NewApp(p.Version.Version, p.Config, p.Env, p.Commands)

	// Deploys can outlast fx's start timeout, so the command runs outside the hook.
	p.Lifecycle.Append(fx.StartHook(func() {
		go func() {
			if err := app.Run(p.Ctx, p.Args); err != nil {
				p.Logger.Error("command failed", zap.Error(err))
				_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				return
			}

			_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
		}()
	}))
}

// NewApp returns the root command. Global flags are written into cfg.
func NewApp(version string, cfg *config.Config, env config.Env, commands []*cli.Command) *cli.Command {
	return &cli.Command{
		Name:  "transformctl",
		Usage: "Manage transformations declaratively",
		Description: `transformctl deploys transformations described in YAML manifests. Every
manifest describes one transformation together with its schedule and
notification subscriptions, and deploy makes the remote project match them.`,
		Version:  version,
		Flags:    globalFlags(cfg, env),
		Commands: commands,
	}
}

func globalFlags(cfg *config.Config, env config.Env) []cli.Flag {
	trim := cli.StringConfig{TrimSpace: true}

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cluster",
			Usage:       "the cluster where transformations are hosted (e.g. greenfield, europe-west1-1)",
			Value:       consts.DefaultCluster,
			Sources:     env.Sources("CLUSTER"),
			Destination: &cfg.Cluster,
			Config:      trim,
		},
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "API key used to authenticate, instead of OAuth2 client credentials",
			Sources:     env.Sources("API_KEY"),
			Destination: &cfg.APIKey,
			Config:      trim,
		},
		&cli.StringFlag{
			Name:        "client-id",
			Usage:       "OAuth2 client id",
			Sources:     env.Sources("CLIENT_ID"),
			Destination: &cfg.ClientID,
			Config:      trim,
		},
		&cli.StringFlag{
			Name:        "client-secret",
			Usage:       "OAuth2 client secret",
			Sources:     env.Sources("CLIENT_SECRET"),
			Destination: &cfg.ClientSecret,
			Config:      trim,
		},
		&cli.StringFlag{
			Name:        "token-url",
			Usage:       "OAuth2 token url",
			Sources:     env.Sources("TOKEN_URL"),
			Destination: &cfg.TokenURL,
			Config:      trim,
		},
		&cli.StringSliceFlag{
			Name:        "scopes",
			Usage:       "OAuth2 scopes, defaults to the cluster scope unless an audience is set",
			Sources:     env.Sources("SCOPES"),
			Destination: &cfg.Scopes,
			Config:      trim,
		},
		&cli.StringFlag{
			Name:        "audience",
			Usage:       "OAuth2 audience",
			Sources:     env.Sources("AUDIENCE"),
			Destination: &cfg.Audience,
			Config:      trim,
		},
		&cli.StringFlag{
			Name:        "cdf-project-name",
			Aliases:     []string{"project"},
			Usage:       "the project to deploy to",
			Sources:     env.Sources("PROJECT"),
			Destination: &cfg.Project,
			Config:      trim,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "timeout for each API request",
			Value:       consts.DefaultTimeout,
			Sources:     env.Sources("TIMEOUT"),
			Destination: &cfg.Timeout,
		},
	}
}

func requireConfig(cfg *config.Config) func(context.Context, *cli.Command) (context.Context, error) {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cfg == nil {
			return ctx, errors.New("client configuration is missing")
		}

		if err := cfg.Validate(); err != nil {
			return ctx, errors.Wrap(err, "invalid client configuration")
		}

		return ctx, nil
	}
}
