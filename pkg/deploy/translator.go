package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/api"
	"github.com/pseudomuto/transformctl/pkg/manifest"
)

type (
	// Translator maps manifests onto the API resources they describe.
	Translator struct {
		// Cluster determines the default OAuth scope for credentials that set
		// neither scopes nor an audience.
		Cluster string

		// DataSets resolves dataSetExternalId references. It is only called for
		// manifests that use one.
		DataSets DataSetRetriever
	}

	// Desired is the complete set of resources a manifest set asks for.
	Desired struct {
		Transformations []api.Transformation
		Schedules       []api.Schedule
		Notifications   []api.Notification
	}
)

// Translate converts every manifest in set, in path order. The first failure
// aborts the translation and is returned as a *manifest.ConfigError.
func (tr *Translator) Translate(ctx context.Context, set manifest.Set) (*Desired, error) {
	desired := new(Desired)
	for _, path := range set.Paths() {
		cfg := set[path]

		t, err := tr.ToTransformation(ctx, path, cfg)
		if err != nil {
			return nil, err
		}

		desired.Transformations = append(desired.Transformations, t)
		if s := ToSchedule(cfg); s != nil {
			desired.Schedules = append(desired.Schedules, *s)
		}
		desired.Notifications = append(desired.Notifications, ToNotifications(cfg)...)
	}

	return desired, nil
}

// ToTransformation builds the transformation resource for cfg. path is the
// manifest file; query files are resolved relative to its directory.
func (tr *Translator) ToTransformation(ctx context.Context, path string, cfg *manifest.Transformation) (api.Transformation, error) {
	query, err := tr.query(path, cfg.Query)
	if err != nil {
		return api.Transformation{}, &manifest.ConfigError{Path: path, Err: err}
	}

	dataSetID, err := tr.dataSetID(ctx, cfg)
	if err != nil {
		return api.Transformation{}, &manifest.ConfigError{Path: path, Err: err}
	}

	t := api.Transformation{
		ExternalID:       cfg.ExternalID,
		Name:             cfg.Name,
		Query:            query,
		Destination:      ToDestination(cfg.Destination),
		ConflictMode:     ConflictMode(cfg.Action),
		IsPublic:         cfg.Shared,
		IgnoreNullFields: cfg.IgnoreNullFields,
		DataSetID:        dataSetID,
		Tags:             cfg.Tags,
	}

	if read := cfg.Authentication.ReadCredentials(); read != nil {
		t.SourceAPIKey = read.APIKey
		t.SourceOIDCCredentials = tr.oidc(read)
	}

	if write := cfg.Authentication.WriteCredentials(); write != nil {
		t.DestinationAPIKey = write.APIKey
		t.DestinationOIDCCredentials = tr.oidc(write)
	}

	return t, nil
}

// ToSchedule returns the schedule for cfg, or nil when it is not scheduled.
func ToSchedule(cfg *manifest.Transformation) *api.Schedule {
	if cfg.Schedule == nil {
		return nil
	}

	return &api.Schedule{
		ExternalID: cfg.ExternalID,
		Interval:   cfg.Schedule.Interval,
		IsPaused:   cfg.Schedule.IsPaused,
	}
}

// ToNotifications returns one notification per destination address of cfg.
func ToNotifications(cfg *manifest.Transformation) []api.Notification {
	out := make([]api.Notification, 0, len(cfg.Notifications))
	for _, dest := range cfg.Notifications {
		out = append(out, api.Notification{
			TransformationExternalID: cfg.ExternalID,
			Destination:              dest,
		})
	}

	return out
}

// ConflictMode maps an action onto the API conflict mode. The deprecated
// create action is sent as abort.
func ConflictMode(a manifest.Action) string {
	if a == manifest.ActionCreate {
		return string(manifest.ActionAbort)
	}

	return string(a)
}

// ToDestination maps a destination onto its wire form, carrying only the
// fields its kind uses.
func ToDestination(d manifest.Destination) *api.Destination {
	out := &api.Destination{Type: string(d.Type)}

	switch d.Type.Kind() {
	case manifest.KindSimple:
	case manifest.KindRaw:
		out.Database = d.Database
		out.Table = d.Table
	case manifest.KindSequenceRows:
		out.ExternalID = d.ExternalID
	case manifest.KindDataModelInstances:
		out.ModelExternalID = d.ModelExternalID
		out.SpaceExternalID = d.SpaceExternalID
		out.InstanceSpaceExternalID = d.InstanceSpaceExternalID
	case manifest.KindNodes:
		out.View = toView(d.View)
		out.InstanceSpace = d.InstanceSpace
	case manifest.KindEdges:
		out.View = toView(d.View)
		out.InstanceSpace = d.InstanceSpace
		if d.EdgeType != nil {
			out.EdgeType = &api.EdgeType{Space: d.EdgeType.Space, ExternalID: d.EdgeType.ExternalID}
		}
	case manifest.KindInstances:
		out.InstanceSpace = d.InstanceSpace
		if dm := d.DataModel; dm != nil {
			out.DataModel = &api.DataModelInfo{
				Space:                           dm.Space,
				ExternalID:                      dm.ExternalID,
				Version:                         dm.Version,
				DestinationType:                 dm.DestinationType,
				DestinationRelationshipFromType: dm.DestinationRelationshipFromType,
			}
		}
	}

	return out
}

// DefaultScopes returns the platform scope for cluster.
func DefaultScopes(cluster string) []string {
	return []string{fmt.Sprintf("https://%s.cognitedata.com/.default", cluster)}
}

func toView(v *manifest.ViewInfo) *api.ViewInfo {
	if v == nil {
		return nil
	}

	return &api.ViewInfo{Space: v.Space, ExternalID: v.ExternalID, Version: v.Version}
}

func (tr *Translator) query(path string, q manifest.Query) (string, error) {
	if !q.IsFile() {
		return q.SQL, nil
	}

	file := q.File
	if !filepath.IsAbs(file) {
		file = filepath.Join(filepath.Dir(path), file)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", errors.Wrapf(ErrQueryFile, "%s: %v", q.File, err)
	}

	return string(data), nil
}

func (tr *Translator) dataSetID(ctx context.Context, cfg *manifest.Transformation) (*int64, error) {
	if cfg.DataSetExternalID == "" {
		return cfg.DataSetID, nil
	}

	if tr.DataSets == nil {
		return nil, errors.Errorf("cannot resolve data set external id %q without a client", cfg.DataSetExternalID)
	}

	ds, err := tr.DataSets.RetrieveDataSet(ctx, api.ByExternalID(cfg.DataSetExternalID))
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"invalid data set external id, please verify if it exists or you have the required capability: %s",
			cfg.DataSetExternalID,
		)
	}

	id := ds.ID
	return &id, nil
}

// oidc returns client credentials for c, or nil unless the client id, secret,
// token URL and project are all present.
func (tr *Translator) oidc(c *manifest.CredentialSet) *api.OIDCCredentials {
	if c.ClientID == "" || c.ClientSecret == "" || c.TokenURL == "" || c.CDFProjectName == "" {
		return nil
	}

	scopes := c.Scopes
	if len(scopes) == 0 && c.Audience == "" {
		scopes = DefaultScopes(tr.Cluster)
	}

	return &api.OIDCCredentials{
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		Scopes:         strings.Join(scopes, " "),
		TokenURI:       c.TokenURL,
		CDFProjectName: c.CDFProjectName,
		Audience:       c.Audience,
	}
}
