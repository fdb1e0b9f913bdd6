package cmd

import (
	"context"
	"fmt"

	"github.com/pseudomuto/transformctl/pkg/api"
	"github.com/pseudomuto/transformctl/pkg/config"
	"github.com/pseudomuto/transformctl/pkg/deploy"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type deleteParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	NewClient ClientFactory
}

// deleteCmd creates the delete command, which removes a single transformation
// by id or external id. Deleting a transformation also removes its schedule and
// notification subscriptions remotely.
//
// Example usage:
//
//	transformctl delete --external-id my-transformation
//	transformctl delete --id 1234
func deleteCmd(p deleteParams) *cli.Command {
	return &cli.Command{
		Name:   "delete",
		Usage:  "Delete a transformation",
		Before: requireConfig(p.Config),
		MutuallyExclusiveFlags: []cli.MutuallyExclusiveFlags{
			{
				Required: true,
				Flags: [][]cli.Flag{
					{
						&cli.Int64Flag{
							Name:  "id",
							Usage: "the id of the transformation to delete",
						},
					},
					{
						&cli.StringFlag{
							Name:  "external-id",
							Usage: "the external id of the transformation to delete",
							Config: cli.StringConfig{
								TrimSpace: true,
							},
						},
					},
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDelete(ctx, cmd, p)
		},
	}
}

func runDelete(ctx context.Context, cmd *cli.Command, p deleteParams) error {
	id := api.ByExternalID(cmd.String("external-id"))
	if cmd.IsSet("id") {
		id = api.ByID(cmd.Int64("id"))
	}

	fmt.Fprintf(cmd.Writer, "Deleting transformation %s (cluster: %s)...\n", id, p.Config.ClusterName())

	client, err := p.NewClient(p.Config, p.Logger)
	if err != nil {
		return err
	}

	t, err := deploy.DeleteTransformation(ctx, client, id)
	if err != nil {
		return err
	}

	p.Logger.Info("deleted transformation", zap.Int64("id", t.ID), zap.String("external_id", t.ExternalID))
	fmt.Fprintf(cmd.Writer, "Transformation %q deleted\n", t.Name)
	return nil
}
