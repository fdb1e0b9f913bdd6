package deploy_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/api"
	. "github.com/pseudomuto/transformctl/pkg/deploy"
	"github.com/pseudomuto/transformctl/pkg/manifest"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
	"gotest.tools/v3/golden"
)

const simpleManifest = `
externalId: t1
name: T1
destination: assets
query: select 1
authentication:
  apiKey: key
`

func loadManifests(t *testing.T, ops ...fs.PathOp) manifest.Set {
	t.Helper()

	dir := fs.NewDir(t, "manifests", ops...)
	set, err := manifest.Load(dir.Path(), manifest.Options{Env: manifest.MapResolver{}})
	require.NoError(t, err)

	return set
}

func TestDeployer_EndToEnd(t *testing.T) {
	set := loadManifests(t, fs.WithFile("t1.yaml", simpleManifest))
	client := newFakeClient()
	deployer := New(client, Options{Cluster: "europe-west1-1"})

	res, err := deployer.Deploy(context.Background(), set)
	require.NoError(t, err)
	require.Equal(t, []PassResult{
		{Resource: ResourceTransformations, Created: []string{"t1"}},
		{Resource: ResourceSchedules},
		{Resource: ResourceNotifications},
	}, res.Passes)

	res, err = deployer.Deploy(context.Background(), set)
	require.NoError(t, err)
	require.Equal(t, []PassResult{
		{Resource: ResourceTransformations, Updated: []string{"t1"}},
		{Resource: ResourceSchedules},
		{Resource: ResourceNotifications},
	}, res.Passes)
}

func TestDeployer_SchedulesAndNotifications(t *testing.T) {
	set := loadManifests(t,
		fs.WithFile("t1.yaml", simpleManifest+"schedule: \"0 * * * *\"\nnotifications: [ops@example.com]\n"),
	)
	client := newFakeClient()

	res, err := New(client, Options{}).Deploy(context.Background(), set)
	require.NoError(t, err)
	require.Equal(t, []PassResult{
		{Resource: ResourceTransformations, Created: []string{"t1"}},
		{Resource: ResourceSchedules, Created: []string{"t1"}},
		{Resource: ResourceNotifications, Created: []string{"t1: ops@example.com"}},
	}, res.Passes)
	require.Equal(t, 3, res.Count())

	methods := make([]string, 0, len(client.mutations()))
	for _, c := range client.mutations() {
		methods = append(methods, c.Method)
	}
	require.Equal(t, []string{"CreateTransformations", "CreateSchedules", "CreateNotifications"}, methods)
}

func TestDeployer_UnscheduledTransformationLosesSchedule(t *testing.T) {
	set := loadManifests(t, fs.WithFile("t1.yaml", simpleManifest))
	client := newFakeClient()
	client.transformations = []api.Transformation{{ID: 1, ExternalID: "t1"}}
	client.schedules = []api.Schedule{{ExternalID: "t1", Interval: "* * * * *"}}

	res, err := New(client, Options{}).Deploy(context.Background(), set)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, res.Passes[1].Deleted)
	require.Empty(t, client.schedules)
}

func TestDeployer_ConfigErrorsPrecedeMutations(t *testing.T) {
	set := loadManifests(t,
		fs.WithFile("a.yaml", simpleManifest),
		fs.WithFile("b.yaml", "externalId: t2\nname: T2\ndestination: assets\nquery:\n  file: missing.sql\nauthentication:\n  apiKey: k\n"),
	)
	client := newFakeClient()

	res, err := New(client, Options{}).Deploy(context.Background(), set)
	require.Nil(t, res)
	require.ErrorIs(t, err, ErrQueryFile)

	var cfgErr *manifest.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Empty(t, client.calls)
}

func TestDeployer_SnapshotFailure(t *testing.T) {
	set := loadManifests(t, fs.WithFile("t1.yaml", simpleManifest))
	client := newFakeClient()
	client.failures["RetrieveSchedules"] = 1

	_, err := New(client, Options{}).Deploy(context.Background(), set)

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, ResourceSchedules, remoteErr.Resource)
	require.Equal(t, OperationRetrieve, remoteErr.Operation)
	require.Empty(t, client.mutations())
}

func TestDeployer_FailureReturnsPartialResult(t *testing.T) {
	set := loadManifests(t,
		fs.WithFile("t1.yaml", simpleManifest+"schedule: \"0 * * * *\"\n"),
	)
	client := newFakeClient()
	client.failures["CreateSchedules"] = 1

	res, err := New(client, Options{}).Deploy(context.Background(), set)
	require.ErrorIs(t, err, errRemote)
	require.Len(t, res.Passes, 2)
	require.Equal(t, []string{"t1"}, res.Passes[0].Created)
	require.Empty(t, res.Passes[1].Created)
	require.Empty(t, client.callsTo("CreateNotifications"))
}

func TestDeleteTransformation(t *testing.T) {
	client := newFakeClient()
	client.transformations = []api.Transformation{{ID: 7, ExternalID: "t1"}, {ID: 8}}

	_, err := DeleteTransformation(context.Background(), client, api.ByExternalID("nope"))
	require.ErrorIs(t, err, api.ErrNotFound)
	require.Contains(t, err.Error(), `id not found: "nope"`)
	require.Empty(t, client.callsTo("DeleteTransformations"))

	deleted, err := DeleteTransformation(context.Background(), client, api.ByID(7))
	require.NoError(t, err)
	require.Equal(t, "t1", deleted.ExternalID)
	require.Equal(t, []api.Identifier{api.ByExternalID("t1")}, client.callsTo("DeleteTransformations")[0].Items)

	_, err = DeleteTransformation(context.Background(), client, api.ByID(8))
	require.NoError(t, err)
	require.Equal(t, []api.Identifier{api.ByID(8)}, client.callsTo("DeleteTransformations")[1].Items)
	require.Empty(t, client.transformations)
}

func TestResultWrite(t *testing.T) {
	res := &Result{Passes: []PassResult{
		{Resource: ResourceTransformations, Updated: []string{"t1", "t2"}, Created: []string{"t3"}},
		{Resource: ResourceSchedules, Deleted: []string{"t2"}, Created: []string{"t3"}},
		{Resource: ResourceNotifications, Created: []string{"t3: ops@example.com"}},
	}}

	tests := []struct {
		name    string
		verbose bool
		golden  string
	}{
		{name: "summary", verbose: false, golden: "report.golden"},
		{name: "verbose", verbose: true, golden: "report_verbose.golden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, res.Write(&buf, tt.verbose))
			golden.Assert(t, buf.String(), tt.golden)
		})
	}

	var buf bytes.Buffer
	require.NoError(t, (&Result{Passes: []PassResult{{Resource: ResourceTransformations}}}).Write(&buf, true))
	require.Empty(t, buf.String())
}
