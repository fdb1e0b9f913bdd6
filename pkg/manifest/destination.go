package manifest

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DestinationAssets             DestinationType = "assets"
	DestinationTimeSeries         DestinationType = "timeseries"
	DestinationAssetHierarchy     DestinationType = "asset_hierarchy"
	DestinationEvents             DestinationType = "events"
	DestinationDataPoints         DestinationType = "datapoints"
	DestinationStringDataPoints   DestinationType = "string_datapoints"
	DestinationSequences          DestinationType = "sequences"
	DestinationFiles              DestinationType = "files"
	DestinationLabels             DestinationType = "labels"
	DestinationRelationships      DestinationType = "relationships"
	DestinationRaw                DestinationType = "raw"
	DestinationDataSets           DestinationType = "data_sets"
	DestinationSequenceRows       DestinationType = "sequence_rows"
	DestinationDataModelInstances DestinationType = "data_model_instances"
	DestinationNodes              DestinationType = "nodes"
	DestinationEdges              DestinationType = "edges"
	DestinationInstances          DestinationType = "instances"
)

const (
	// KindSimple destinations are identified by their type alone.
	KindSimple DestinationKind = iota
	// KindRaw destinations need a database and a table.
	KindRaw
	// KindSequenceRows destinations need the external id of the target sequence.
	KindSequenceRows
	// KindDataModelInstances destinations need model, space and instance space ids.
	KindDataModelInstances
	// KindNodes destinations write nodes through an optional view.
	KindNodes
	// KindEdges destinations write edges through an optional view and edge type.
	KindEdges
	// KindInstances destinations write through a data model type.
	KindInstances
)

var destinationTypes = []DestinationType{
	DestinationAssets,
	DestinationTimeSeries,
	DestinationAssetHierarchy,
	DestinationEvents,
	DestinationDataPoints,
	DestinationStringDataPoints,
	DestinationSequences,
	DestinationFiles,
	DestinationLabels,
	DestinationRelationships,
	DestinationRaw,
	DestinationDataSets,
	DestinationSequenceRows,
	DestinationDataModelInstances,
	DestinationNodes,
	DestinationEdges,
	DestinationInstances,
}

type (
	// DestinationType names the resource type a transformation writes to.
	DestinationType string

	// DestinationKind groups destination types by the fields they require.
	DestinationKind int

	// Destination describes where a transformation writes. Which fields are
	// meaningful depends on Type.Kind().
	Destination struct {
		Type DestinationType

		// Database and Table are used by raw destinations.
		Database string
		Table    string

		// ExternalID is the target sequence of sequence_rows destinations.
		ExternalID string

		// Data model instance destinations.
		ModelExternalID         string
		SpaceExternalID         string
		InstanceSpaceExternalID string

		// Node, edge and instance destinations.
		View          *ViewInfo
		EdgeType      *EdgeType
		DataModel     *DataModelInfo
		InstanceSpace string
	}

	// ViewInfo references a view in a data model.
	ViewInfo struct {
		Space      string `yaml:"space"`
		ExternalID string `yaml:"externalid"`
		Version    string `yaml:"version"`
	}

	// EdgeType references the node describing the type of written edges.
	EdgeType struct {
		Space      string `yaml:"space"`
		ExternalID string `yaml:"externalid"`
	}

	// DataModelInfo references a type inside a data model.
	DataModelInfo struct {
		Space                           string `yaml:"space"`
		ExternalID                      string `yaml:"externalid"`
		Version                         string `yaml:"version"`
		DestinationType                 string `yaml:"destinationtype"`
		DestinationRelationshipFromType string `yaml:"destinationrelationshipfromtype"`
	}
)

// ParseDestinationType returns the DestinationType matching s exactly.
func ParseDestinationType(s string) (DestinationType, error) {
	for _, t := range destinationTypes {
		if string(t) == s {
			return t, nil
		}
	}

	return "", errors.Wrapf(ErrUnknownDestination, "%q", s)
}

// Kind returns the group of required fields for t.
func (t DestinationType) Kind() DestinationKind {
	switch t {
	case DestinationRaw:
		return KindRaw
	case DestinationSequenceRows:
		return KindSequenceRows
	case DestinationDataModelInstances:
		return KindDataModelInstances
	case DestinationNodes:
		return KindNodes
	case DestinationEdges:
		return KindEdges
	case DestinationInstances:
		return KindInstances
	default:
		return KindSimple
	}
}

// UnmarshalYAML implements yaml.Unmarshaler. A bare string is shorthand for
// {type: <string>}. Raw destinations accept rawDatabase/rawTable as well as
// database/table.
func (d *Destination) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t, err := ParseDestinationType(node.Value)
		if err != nil {
			return err
		}

		*d = Destination{Type: t}
		return nil
	case yaml.MappingNode:
	default:
		return errors.Errorf("line %d: destination must be a string or a mapping", node.Line)
	}

	var raw struct {
		Type                    string         `yaml:"type"`
		RawDatabase             string         `yaml:"rawdatabase"`
		RawTable                string         `yaml:"rawtable"`
		Database                string         `yaml:"database"`
		Table                   string         `yaml:"table"`
		ExternalID              string         `yaml:"externalid"`
		ModelExternalID         string         `yaml:"modelexternalid"`
		SpaceExternalID         string         `yaml:"spaceexternalid"`
		InstanceSpaceExternalID string         `yaml:"instancespaceexternalid"`
		View                    *ViewInfo      `yaml:"view"`
		EdgeType                *EdgeType      `yaml:"edgetype"`
		DataModel               *DataModelInfo `yaml:"datamodel"`
		InstanceSpace           string         `yaml:"instancespace"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	t, err := ParseDestinationType(raw.Type)
	if err != nil {
		return err
	}

	*d = Destination{
		Type:                    t,
		Database:                firstNonEmpty(raw.RawDatabase, raw.Database),
		Table:                   firstNonEmpty(raw.RawTable, raw.Table),
		ExternalID:              raw.ExternalID,
		ModelExternalID:         raw.ModelExternalID,
		SpaceExternalID:         raw.SpaceExternalID,
		InstanceSpaceExternalID: raw.InstanceSpaceExternalID,
		View:                    raw.View,
		EdgeType:                raw.EdgeType,
		DataModel:               raw.DataModel,
		InstanceSpace:           raw.InstanceSpace,
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
