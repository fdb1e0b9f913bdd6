package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/config"
	"github.com/pseudomuto/transformctl/pkg/consts"
	"github.com/pseudomuto/transformctl/pkg/deploy"
	"github.com/pseudomuto/transformctl/pkg/manifest"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type deployParams struct {
	fx.In

	Config    *config.Config
	Env       config.Env
	Logger    *zap.Logger
	NewClient ClientFactory
}

// deployCmd creates the deploy command.
//
// Command flags:
//   - --path: directory searched recursively for *.yaml and *.yml manifests (default ".")
//   - --debug: list the external ids affected by each operation
//   - --legacy: parse every manifest with the legacy schema
//   - --batch-size: maximum number of items per API call (default 5)
//
// Example usage:
//
//	# Deploy every manifest below ./transformations
//	transformctl deploy --path ./transformations
//
//	# Show which transformations, schedules and notifications changed
//	transformctl deploy --path ./transformations --debug
func deployCmd(p deployParams) *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Deploy a set of transformations from a directory",
		Description: `Load every transformation manifest below --path and make the remote project
match them.

Deploy runs in three passes. Transformations are updated or created first, then
schedules and notification subscriptions are deleted, updated or created so that
they match the manifests. Transformations that have no manifest are left alone.

Every manifest is parsed, validated and translated before anything is sent, so
an invalid manifest never results in a partial deploy. A failing API call stops
the deploy; changes that were already applied are reported and kept.`,
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "a directory to search for transformation manifests",
				Value: consts.DefaultManifestDir,
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "print the external ids that were deleted, updated and created",
			},
			&cli.BoolFlag{
				Name:  "legacy",
				Usage: "parse every manifest with the legacy schema",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "maximum number of items sent in a single API call",
				Value: consts.DefaultBatchSize,
				Validator: func(n int) error {
					if n <= 0 {
						return errors.Errorf("batch size must be positive, got %d", n)
					}
					return nil
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDeploy(ctx, cmd, p)
		},
	}
}

func runDeploy(ctx context.Context, cmd *cli.Command, p deployParams) error {
	path := cmd.String("path")
	fmt.Fprintln(cmd.Writer, "Deploying transformations...")

	p.Logger.Info("loading manifests", zap.String("path", path), zap.Bool("legacy", cmd.Bool("legacy")))
	set, err := manifest.Load(path, manifest.Options{Env: p.Env, ForceLegacy: cmd.Bool("legacy")})
	if err != nil {
		return err
	}

	client, err := p.NewClient(p.Config, p.Logger)
	if err != nil {
		return err
	}

	deployer := deploy.New(client, deploy.Options{
		Cluster:   p.Config.ClusterName(),
		BatchSize: cmd.Int("batch-size"),
		Logger:    p.Logger,
	})

	res, err := deployer.Deploy(ctx, set)
	if res != nil {
		if werr := res.Write(cmd.Writer, cmd.Bool("debug")); werr != nil && err == nil {
			err = errors.Wrap(werr, "failed to write report")
		}
	}

	return err
}
