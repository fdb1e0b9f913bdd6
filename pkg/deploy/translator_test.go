package deploy_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/api"
	. "github.com/pseudomuto/transformctl/pkg/deploy"
	"github.com/pseudomuto/transformctl/pkg/manifest"
	"github.com/pseudomuto/transformctl/pkg/utils"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

func baseManifest() *manifest.Transformation {
	return &manifest.Transformation{
		ExternalID:       "t1",
		Name:             "T1",
		Query:            manifest.Query{SQL: "select 1"},
		Authentication:   manifest.Authentication{Shared: &manifest.CredentialSet{APIKey: "key"}},
		Destination:      manifest.Destination{Type: manifest.DestinationAssets},
		Shared:           true,
		IgnoreNullFields: true,
		Action:           manifest.ActionUpsert,
	}
}

func TestTranslator_ToTransformation(t *testing.T) {
	tr := &Translator{Cluster: "westeurope-1"}

	got, err := tr.ToTransformation(context.Background(), "manifest.yaml", baseManifest())
	require.NoError(t, err)
	require.Equal(t, api.Transformation{
		ExternalID:        "t1",
		Name:              "T1",
		Query:             "select 1",
		Destination:       &api.Destination{Type: "assets"},
		ConflictMode:      "upsert",
		IsPublic:          true,
		IgnoreNullFields:  true,
		SourceAPIKey:      "key",
		DestinationAPIKey: "key",
	}, got)
}

func TestTranslator_UntaggedManifestClearsTags(t *testing.T) {
	cfg, err := manifest.Parse([]byte("externalId: t1\nname: T1\nquery: select 1\ndestination: assets\nauthentication:\n  apiKey: key\n"), manifest.Options{})
	require.NoError(t, err)
	require.Nil(t, cfg.Tags)

	got, err := (&Translator{}).ToTransformation(context.Background(), "t1.yaml", cfg)
	require.NoError(t, err)

	update := api.FullUpdate(got)
	require.Equal(t, api.Patch{Set: []string{}}, update.Fields["tags"])
}

func TestTranslator_QueryFile(t *testing.T) {
	dir := fs.NewDir(t, "manifests",
		fs.WithDir("nested",
			fs.WithFile("t1.yaml", ""),
			fs.WithFile("query.sql", "select * from db.tbl"),
		),
	)
	path := filepath.Join(dir.Path(), "nested", "t1.yaml")
	tr := &Translator{}

	cfg := baseManifest()
	cfg.Query = manifest.Query{File: "query.sql"}

	got, err := tr.ToTransformation(context.Background(), path, cfg)
	require.NoError(t, err)
	require.Equal(t, "select * from db.tbl", got.Query)

	cfg.Query = manifest.Query{File: "missing.sql"}
	_, err = tr.ToTransformation(context.Background(), path, cfg)
	require.ErrorIs(t, err, ErrQueryFile)

	var cfgErr *manifest.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, path, cfgErr.Path)
}

func TestTranslator_DataSet(t *testing.T) {
	client := newFakeClient()
	client.dataSets["my-ds"] = 77
	tr := &Translator{DataSets: client}

	t.Run("numeric id is passed through", func(t *testing.T) {
		cfg := baseManifest()
		cfg.DataSetID = utils.Ptr(int64(5))

		got, err := tr.ToTransformation(context.Background(), "m.yaml", cfg)
		require.NoError(t, err)
		require.Equal(t, int64(5), *got.DataSetID)
		require.Empty(t, client.callsTo("RetrieveDataSet"))
	})

	t.Run("external id is resolved", func(t *testing.T) {
		cfg := baseManifest()
		cfg.DataSetExternalID = "my-ds"

		got, err := tr.ToTransformation(context.Background(), "m.yaml", cfg)
		require.NoError(t, err)
		require.Equal(t, int64(77), *got.DataSetID)
		require.Len(t, client.callsTo("RetrieveDataSet"), 1)
	})

	t.Run("lookup failure is a configuration error", func(t *testing.T) {
		cfg := baseManifest()
		cfg.DataSetExternalID = "unknown"

		_, err := tr.ToTransformation(context.Background(), "m.yaml", cfg)
		require.ErrorIs(t, err, api.ErrNotFound)
		require.Contains(t, err.Error(), "invalid data set external id, please verify if it exists or you have the required capability: unknown")

		var cfgErr *manifest.ConfigError
		require.True(t, errors.As(err, &cfgErr))
	})
}

func TestTranslator_OIDCCredentials(t *testing.T) {
	tr := &Translator{Cluster: "greenfield"}
	oauth := func(mod func(*manifest.CredentialSet)) *manifest.CredentialSet {
		c := &manifest.CredentialSet{
			ClientID:       "id",
			ClientSecret:   "secret",
			TokenURL:       "https://login/token",
			CDFProjectName: "proj",
		}
		mod(c)
		return c
	}

	tests := []struct {
		name     string
		creds    *manifest.CredentialSet
		expected *api.OIDCCredentials
	}{
		{
			name:  "default scopes",
			creds: oauth(func(*manifest.CredentialSet) {}),
			expected: &api.OIDCCredentials{
				ClientID:       "id",
				ClientSecret:   "secret",
				Scopes:         "https://greenfield.cognitedata.com/.default",
				TokenURI:       "https://login/token",
				CDFProjectName: "proj",
			},
		},
		{
			name:  "explicit scopes",
			creds: oauth(func(c *manifest.CredentialSet) { c.Scopes = []string{"a", "b"} }),
			expected: &api.OIDCCredentials{
				ClientID:       "id",
				ClientSecret:   "secret",
				Scopes:         "a b",
				TokenURI:       "https://login/token",
				CDFProjectName: "proj",
			},
		},
		{
			name:  "audience without scopes",
			creds: oauth(func(c *manifest.CredentialSet) { c.Audience = "aud" }),
			expected: &api.OIDCCredentials{
				ClientID:       "id",
				ClientSecret:   "secret",
				TokenURI:       "https://login/token",
				CDFProjectName: "proj",
				Audience:       "aud",
			},
		},
		{
			name:  "incomplete credentials are not sent",
			creds: oauth(func(c *manifest.CredentialSet) { c.CDFProjectName = "" }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseManifest()
			cfg.Authentication = manifest.Authentication{Read: tt.creds, Write: &manifest.CredentialSet{APIKey: "write"}}

			got, err := tr.ToTransformation(context.Background(), "m.yaml", cfg)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got.SourceOIDCCredentials)
			require.Nil(t, got.DestinationOIDCCredentials)
			require.Empty(t, got.SourceAPIKey)
			require.Equal(t, "write", got.DestinationAPIKey)
		})
	}
}

func TestConflictMode(t *testing.T) {
	require.Equal(t, "abort", ConflictMode(manifest.ActionCreate))
	require.Equal(t, "abort", ConflictMode(manifest.ActionAbort))
	require.Equal(t, "update", ConflictMode(manifest.ActionUpdate))
	require.Equal(t, "upsert", ConflictMode(manifest.ActionUpsert))
	require.Equal(t, "delete", ConflictMode(manifest.ActionDelete))
}

func TestToDestination(t *testing.T) {
	tests := []struct {
		name     string
		input    manifest.Destination
		expected *api.Destination
	}{
		{
			name:     "raw",
			input:    manifest.Destination{Type: manifest.DestinationRaw, Database: "db", Table: "tbl"},
			expected: &api.Destination{Type: "raw", Database: "db", Table: "tbl"},
		},
		{
			name:     "simple type drops raw fields",
			input:    manifest.Destination{Type: manifest.DestinationDataSets, Database: "db", Table: "tbl"},
			expected: &api.Destination{Type: "data_sets"},
		},
		{
			name:     "sequence rows",
			input:    manifest.Destination{Type: manifest.DestinationSequenceRows, ExternalID: "seq"},
			expected: &api.Destination{Type: "sequence_rows", ExternalID: "seq"},
		},
		{
			name: "data model instances",
			input: manifest.Destination{
				Type:                    manifest.DestinationDataModelInstances,
				ModelExternalID:         "m",
				SpaceExternalID:         "s",
				InstanceSpaceExternalID: "is",
			},
			expected: &api.Destination{
				Type:                    "data_model_instances",
				ModelExternalID:         "m",
				SpaceExternalID:         "s",
				InstanceSpaceExternalID: "is",
			},
		},
		{
			name: "edges",
			input: manifest.Destination{
				Type:          manifest.DestinationEdges,
				View:          &manifest.ViewInfo{Space: "s", ExternalID: "v", Version: "1"},
				EdgeType:      &manifest.EdgeType{Space: "s", ExternalID: "e"},
				InstanceSpace: "is",
			},
			expected: &api.Destination{
				Type:          "edges",
				View:          &api.ViewInfo{Space: "s", ExternalID: "v", Version: "1"},
				EdgeType:      &api.EdgeType{Space: "s", ExternalID: "e"},
				InstanceSpace: "is",
			},
		},
		{
			name: "instances",
			input: manifest.Destination{
				Type:      manifest.DestinationInstances,
				DataModel: &manifest.DataModelInfo{Space: "s", ExternalID: "dm", Version: "2", DestinationType: "Pump"},
			},
			expected: &api.Destination{
				Type:      "instances",
				DataModel: &api.DataModelInfo{Space: "s", ExternalID: "dm", Version: "2", DestinationType: "Pump"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ToDestination(tt.input))
		})
	}
}

func TestToScheduleAndNotifications(t *testing.T) {
	cfg := baseManifest()
	require.Nil(t, ToSchedule(cfg))
	require.Empty(t, ToNotifications(cfg))

	cfg.Schedule = &manifest.Schedule{Interval: "0 * * * *", IsPaused: true}
	cfg.Notifications = []string{"a@example.com", "b@example.com"}

	require.Equal(t, &api.Schedule{ExternalID: "t1", Interval: "0 * * * *", IsPaused: true}, ToSchedule(cfg))
	require.Equal(t, []api.Notification{
		{TransformationExternalID: "t1", Destination: "a@example.com"},
		{TransformationExternalID: "t1", Destination: "b@example.com"},
	}, ToNotifications(cfg))
}
