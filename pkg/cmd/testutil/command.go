package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/urfave/cli/v3"
)

// RunCommand executes command inside a test app with the given root flags and
// command arguments, returning everything the command wrote.
//
// Example:
//
//	out, err := testutil.RunCommand(t, root, deployCmd(p), "--path", dir)
func RunCommand(t *testing.T, root *cli.Command, command *cli.Command, args ...string) (string, error) {
	t.Helper()

	return RunCommandWithContext(context.Background(), t, root, command, args...)
}

// RunCommandWithContext is RunCommand with a custom context.
func RunCommandWithContext(ctx context.Context, t *testing.T, root *cli.Command, command *cli.Command, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer

	app := &cli.Command{Name: "test"}
	if root != nil {
		app.Flags = root.Flags
		app.Before = root.Before
	}
	app.Commands = []*cli.Command{command}
	app.Writer = &buf
	app.ErrWriter = &buf
	command.Writer = &buf
	command.ErrWriter = &buf

	fullArgs := append([]string{"test", command.Name}, args...)
	err := app.Run(ctx, fullArgs)

	return buf.String(), err
}
