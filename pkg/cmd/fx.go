package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		func() ClientFactory { return NewClient },
		fx.Annotate(deployCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(deleteCmd, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
