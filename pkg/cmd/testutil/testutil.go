package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/transformctl/pkg/consts"
	"github.com/stretchr/testify/require"
)

// ManifestFixture is a temporary directory of transformation manifests.
type ManifestFixture struct {
	Dir string
	t   *testing.T
}

// Manifests creates an empty manifest directory removed when the test ends.
func Manifests(t *testing.T) *ManifestFixture {
	t.Helper()

	return &ManifestFixture{Dir: t.TempDir(), t: t}
}

// WithFile writes content to path, relative to the fixture directory, creating
// parent directories as needed.
func (m *ManifestFixture) WithFile(path, content string) *ManifestFixture {
	m.t.Helper()

	full := filepath.Join(m.Dir, path)
	require.NoError(m.t, os.MkdirAll(filepath.Dir(full), consts.ModeDir), "Failed to create directory for %s", path)
	require.NoError(m.t, os.WriteFile(full, []byte(content), consts.ModeFile), "Failed to write %s", path)

	return m
}

// WithManifest writes a minimal API key manifest for externalID, followed by
// extra YAML.
func (m *ManifestFixture) WithManifest(externalID, extra string) *ManifestFixture {
	m.t.Helper()

	content := "externalId: " + externalID + "\n" +
		"name: " + externalID + "\n" +
		"destination: assets\n" +
		"query: select 1\n" +
		"authentication:\n" +
		"  apiKey: manifest-key\n" +
		extra

	return m.WithFile(externalID+".yaml", content)
}

// Remove deletes path from the fixture.
func (m *ManifestFixture) Remove(path string) *ManifestFixture {
	m.t.Helper()

	require.NoError(m.t, os.Remove(filepath.Join(m.Dir, path)))
	return m
}
