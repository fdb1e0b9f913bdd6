package manifest

import "github.com/pkg/errors"

// Validate checks the structural invariants of a parsed manifest and returns an
// error describing the first violation. It never modifies t.
//
// The checks, in order:
//   - required fields (externalId, name, query, authentication, destination)
//   - destination completeness for raw, sequence row and data model destinations
//   - every credential set is either an API key or OAuth, never both
//   - shared credentials and a read/write pair are not both given
//   - dataSetId and dataSetExternalId are not both given
func Validate(t *Transformation) error {
	if err := validateRequired(t); err != nil {
		return err
	}

	if err := validateDestination(t.Destination); err != nil {
		return err
	}

	if err := validateAuthentication(t.Authentication); err != nil {
		return err
	}

	if t.DataSetID != nil && t.DataSetExternalID != "" {
		return errors.Wrapf(ErrDataSetConflict, "dataSetId %d, dataSetExternalId %q", *t.DataSetID, t.DataSetExternalID)
	}

	return nil
}

func validateRequired(t *Transformation) error {
	missing := func(field string) error {
		return errors.Wrap(ErrMissingField, field)
	}

	switch {
	case t.ExternalID == "":
		return missing("externalId")
	case t.Name == "":
		return missing("name")
	case t.Query.IsZero():
		return missing("query")
	case t.Authentication.IsZero():
		return missing("authentication")
	case t.Destination.Type == "":
		return missing("destination")
	}

	return nil
}

func validateDestination(d Destination) error {
	invalid := func(format string, args ...any) error {
		return errors.Wrapf(ErrInvalidDestination, format, args...)
	}

	switch d.Type.Kind() {
	case KindSimple:
		return nil
	case KindRaw:
		if d.Database == "" || d.Table == "" {
			return invalid("raw destination type requires database and table properties to be set")
		}
	case KindSequenceRows:
		if d.ExternalID == "" {
			return invalid("sequence_rows destination requires externalId")
		}
	case KindDataModelInstances:
		if d.ModelExternalID == "" || d.SpaceExternalID == "" || d.InstanceSpaceExternalID == "" {
			return invalid("data_model_instances destination requires modelExternalId, spaceExternalId and instanceSpaceExternalId")
		}
	case KindNodes:
		return validateView(d.View)
	case KindEdges:
		if err := validateView(d.View); err != nil {
			return err
		}
		if d.EdgeType != nil && (d.EdgeType.Space == "" || d.EdgeType.ExternalID == "") {
			return invalid("edgeType requires space and externalId")
		}
	case KindInstances:
		dm := d.DataModel
		if dm == nil || dm.Space == "" || dm.ExternalID == "" || dm.Version == "" || dm.DestinationType == "" {
			return invalid("instances destination requires dataModel with space, externalId, version and destinationType")
		}
	}

	return nil
}

func validateView(v *ViewInfo) error {
	if v == nil {
		return nil
	}

	if v.Space == "" || v.ExternalID == "" || v.Version == "" {
		return errors.Wrap(ErrInvalidDestination, "view requires space, externalId and version")
	}

	return nil
}

func validateAuthentication(a Authentication) error {
	if a.Shared != nil && a.IsReadWrite() {
		return ErrAuthShape
	}

	sets := []struct {
		name  string
		creds *CredentialSet
	}{
		{"authentication", a.Shared},
		{"authentication.read", a.Read},
		{"authentication.write", a.Write},
	}

	for _, s := range sets {
		if s.creds == nil {
			continue
		}

		if s.creds.APIKey != "" && s.creds.HasOAuth() {
			return errors.Wrap(ErrMixedAuth, s.name)
		}
	}

	return nil
}
