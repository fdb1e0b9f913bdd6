package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/pseudomuto/transformctl/pkg/config"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

func TestLoadEnv(t *testing.T) {
	dir := fs.NewDir(t, "env", fs.WithFile(".env", "TRANSFORMATIONS_API_KEY=from-file\n# comment\nTRANSFORMATIONS_PROJECT=proj\n"))

	env, err := LoadEnv(filepath.Join(dir.Path(), ".env"))
	require.NoError(t, err)
	require.Equal(t, Env{"TRANSFORMATIONS_API_KEY": "from-file", "TRANSFORMATIONS_PROJECT": "proj"}, env)

	env, err = LoadEnv(filepath.Join(dir.Path(), "missing.env"))
	require.NoError(t, err)
	require.Empty(t, env)
}

func TestEnv_LookupEnv(t *testing.T) {
	env := Env{"TRANSFORMCTL_TEST_A": "file", "TRANSFORMCTL_TEST_B": "file"}
	t.Setenv("TRANSFORMCTL_TEST_A", "process")

	v, ok := env.LookupEnv("TRANSFORMCTL_TEST_A")
	require.True(t, ok)
	require.Equal(t, "process", v)

	v, ok = env.LookupEnv("TRANSFORMCTL_TEST_B")
	require.True(t, ok)
	require.Equal(t, "file", v)

	_, ok = env.LookupEnv("TRANSFORMCTL_TEST_C")
	require.False(t, ok)
}

func TestEnv_Sources(t *testing.T) {
	// Restored after the test.
	t.Setenv("TRANSFORMATIONS_CLUSTER", "")
	require.NoError(t, os.Unsetenv("TRANSFORMATIONS_CLUSTER"))

	env := Env{"TRANSFORMATIONS_CLUSTER": "greenfield"}
	sources := env.Sources("CLUSTER")

	v, ok := sources.Lookup()
	require.True(t, ok)
	require.Equal(t, "greenfield", v)
	require.Equal(t, []string{"TRANSFORMATIONS_CLUSTER"}, sources.EnvKeys())

	t.Setenv("TRANSFORMATIONS_CLUSTER", "westeurope-1")
	v, ok = sources.Lookup()
	require.True(t, ok)
	require.Equal(t, "westeurope-1", v)

	unset := Env{}.Sources("TRANSFORMCTL_UNSET")
	_, ok = unset.Lookup()
	require.False(t, ok)
}
