package api

import "encoding/json"

type (
	// Identifier references a resource by internal id or external id. Exactly one
	// of the fields should be set.
	Identifier struct {
		ID         int64  `json:"id,omitempty"`
		ExternalID string `json:"externalId,omitempty"`
	}

	// Transformation is the remote representation of a transformation.
	Transformation struct {
		ID                         int64            `json:"id,omitempty"`
		ExternalID                 string           `json:"externalId"`
		Name                       string           `json:"name"`
		Query                      string           `json:"query,omitempty"`
		Destination                *Destination     `json:"destination,omitempty"`
		ConflictMode               string           `json:"conflictMode,omitempty"`
		IsPublic                   bool             `json:"isPublic"`
		IgnoreNullFields           bool             `json:"ignoreNullFields"`
		DataSetID                  *int64           `json:"dataSetId,omitempty"`
		SourceAPIKey               string           `json:"sourceApiKey,omitempty"`
		DestinationAPIKey          string           `json:"destinationApiKey,omitempty"`
		SourceOIDCCredentials      *OIDCCredentials `json:"sourceOidcCredentials,omitempty"`
		DestinationOIDCCredentials *OIDCCredentials `json:"destinationOidcCredentials,omitempty"`
		Tags                       []string         `json:"tags,omitempty"`
	}

	// OIDCCredentials are the client credentials a transformation uses to read
	// from its source or write to its destination. Scopes is space separated.
	OIDCCredentials struct {
		ClientID       string `json:"clientId"`
		ClientSecret   string `json:"clientSecret"`
		Scopes         string `json:"scopes,omitempty"`
		TokenURI       string `json:"tokenUri"`
		CDFProjectName string `json:"cdfProjectName"`
		Audience       string `json:"audience,omitempty"`
	}

	// Destination is the wire form of every destination variant. Only the fields
	// relevant to Type are sent.
	Destination struct {
		Type                    string         `json:"type"`
		Database                string         `json:"database,omitempty"`
		Table                   string         `json:"table,omitempty"`
		ExternalID              string         `json:"externalId,omitempty"`
		ModelExternalID         string         `json:"modelExternalId,omitempty"`
		SpaceExternalID         string         `json:"spaceExternalId,omitempty"`
		InstanceSpaceExternalID string         `json:"instanceSpaceExternalId,omitempty"`
		View                    *ViewInfo      `json:"view,omitempty"`
		EdgeType                *EdgeType      `json:"edgeType,omitempty"`
		DataModel               *DataModelInfo `json:"dataModel,omitempty"`
		InstanceSpace           string         `json:"instanceSpace,omitempty"`
	}

	ViewInfo struct {
		Space      string `json:"space"`
		ExternalID string `json:"externalId"`
		Version    string `json:"version"`
	}

	EdgeType struct {
		Space      string `json:"space"`
		ExternalID string `json:"externalId"`
	}

	DataModelInfo struct {
		Space                           string `json:"space"`
		ExternalID                      string `json:"externalId"`
		Version                         string `json:"version"`
		DestinationType                 string `json:"destinationType"`
		DestinationRelationshipFromType string `json:"destinationRelationshipFromType,omitempty"`
	}

	// Schedule runs a transformation on a cron interval. ExternalID is the external
	// id of the scheduled transformation.
	Schedule struct {
		ID         int64  `json:"id,omitempty"`
		ExternalID string `json:"externalId"`
		Interval   string `json:"interval"`
		IsPaused   bool   `json:"isPaused"`
	}

	// Notification subscribes an email address to failures of one transformation.
	Notification struct {
		ID                       int64  `json:"id,omitempty"`
		TransformationID         int64  `json:"transformationId,omitempty"`
		TransformationExternalID string `json:"transformationExternalId,omitempty"`
		Destination              string `json:"destination"`
	}

	// DataSet is the subset of data set fields needed to resolve external ids.
	DataSet struct {
		ID         int64  `json:"id"`
		ExternalID string `json:"externalId,omitempty"`
		Name       string `json:"name,omitempty"`
	}

	// Update changes selected fields of the resource identified by ExternalID.
	Update struct {
		ExternalID string           `json:"externalId"`
		Fields     map[string]Patch `json:"update"`
	}

	// Patch is a single field change: either set to a value or cleared.
	Patch struct {
		Set     any
		SetNull bool
	}
)

// ByID returns an Identifier for an internal id.
func ByID(id int64) Identifier {
	return Identifier{ID: id}
}

// ByExternalID returns an Identifier for an external id.
func ByExternalID(externalID string) Identifier {
	return Identifier{ExternalID: externalID}
}

// ByExternalIDs maps every external id to an Identifier.
func ByExternalIDs(externalIDs []string) []Identifier {
	ids := make([]Identifier, len(externalIDs))
	for i, x := range externalIDs {
		ids[i] = ByExternalID(x)
	}

	return ids
}

// MarshalJSON implements json.Marshaler.
func (p Patch) MarshalJSON() ([]byte, error) {
	if p.SetNull {
		return json.Marshal(map[string]bool{"setNull": true})
	}

	return json.Marshal(map[string]any{"set": p.Set})
}

// FullUpdate builds an update that overwrites every field of t that the manifest
// controls. The data set id is left out; SetDataSet covers it separately so that
// a cleared value is sent as an explicit null.
func FullUpdate(t Transformation) Update {
	fields := map[string]Patch{
		"name":             {Set: t.Name},
		"query":            {Set: t.Query},
		"destination":      {Set: t.Destination},
		"conflictMode":     {Set: t.ConflictMode},
		"isPublic":         {Set: t.IsPublic},
		"ignoreNullFields": {Set: t.IgnoreNullFields},
	}

	if t.SourceAPIKey != "" {
		fields["sourceApiKey"] = Patch{Set: t.SourceAPIKey}
	}
	if t.DestinationAPIKey != "" {
		fields["destinationApiKey"] = Patch{Set: t.DestinationAPIKey}
	}
	if t.SourceOIDCCredentials != nil {
		fields["sourceOidcCredentials"] = Patch{Set: t.SourceOIDCCredentials}
	}
	if t.DestinationOIDCCredentials != nil {
		fields["destinationOidcCredentials"] = Patch{Set: t.DestinationOIDCCredentials}
	}

	// A manifest without tags clears the remote ones.
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	fields["tags"] = Patch{Set: tags}

	return Update{ExternalID: t.ExternalID, Fields: fields}
}

// SetDataSet builds the partial update that sets the data set id of a
// transformation, or clears it when id is nil.
func SetDataSet(externalID string, id *int64) Update {
	patch := Patch{SetNull: true}
	if id != nil {
		patch = Patch{Set: *id}
	}

	return Update{ExternalID: externalID, Fields: map[string]Patch{"dataSetId": patch}}
}

// ScheduleUpdate builds an update that overwrites the interval and paused flag.
func ScheduleUpdate(s Schedule) Update {
	return Update{
		ExternalID: s.ExternalID,
		Fields: map[string]Patch{
			"interval": {Set: s.Interval},
			"isPaused": {Set: s.IsPaused},
		},
	}
}
