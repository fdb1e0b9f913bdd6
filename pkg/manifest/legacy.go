package manifest

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// LegacyTransformation is the earliest manifest dialect. It differs from the
	// current schema in that credentials are names of environment variables rather
	// than the secrets themselves, the query is always a file path and destination
	// and action spellings are matched case-insensitively.
	LegacyTransformation struct {
		ExternalID       string                `yaml:"externalid"`
		Name             string                `yaml:"name"`
		Query            string                `yaml:"query"`
		Authentication   *LegacyAuthentication `yaml:"authentication"`
		APIKey           *LegacyAPIKey         `yaml:"apikey"`
		Schedule         string                `yaml:"schedule"`
		Destination      LegacyDestination     `yaml:"destination"`
		Notifications    []string              `yaml:"notifications"`
		Shared           bool                  `yaml:"shared"`
		IgnoreNullFields bool                  `yaml:"ignorenullfields"`
		Action           string                `yaml:"action"`
		Legacy           bool                  `yaml:"legacy"`
	}

	// LegacyOAuth is an OAuth2 configuration whose client id and secret are
	// environment variable names.
	LegacyOAuth struct {
		ClientID       string   `yaml:"clientid"`
		ClientSecret   string   `yaml:"clientsecret"`
		TokenURL       string   `yaml:"tokenurl"`
		Scopes         []string `yaml:"scopes"`
		CDFProjectName string   `yaml:"cdfprojectname"`
		Audience       string   `yaml:"audience"`
	}

	// LegacyAuthentication is one OAuth configuration or a read/write pair.
	LegacyAuthentication struct {
		Shared *LegacyOAuth
		Read   *LegacyOAuth
		Write  *LegacyOAuth
	}

	// LegacyAPIKey names the environment variable(s) holding API keys, either one
	// for both directions or a read/write pair.
	LegacyAPIKey struct {
		Shared string
		Read   string `yaml:"read"`
		Write  string `yaml:"write"`
	}

	// LegacyDestination is a destination type with optional raw table coordinates.
	LegacyDestination struct {
		Type        string `yaml:"type"`
		RawDatabase string `yaml:"rawdatabase"`
		RawTable    string `yaml:"rawtable"`
	}
)

func newLegacyTransformation() *LegacyTransformation {
	return &LegacyTransformation{
		IgnoreNullFields: true,
		Action:           string(ActionUpsert),
		Legacy:           true,
	}
}

// LegacyDestinationType maps a legacy destination spelling onto the current
// destination types. Matching ignores case and underscores, so "stringDatapoints",
// "string_datapoints" and "STRINGDATAPOINTS" are all DestinationStringDataPoints.
func LegacyDestinationType(s string) (DestinationType, error) {
	clean := func(v string) string {
		return strings.ReplaceAll(strings.ToLower(v), "_", "")
	}

	want := clean(s)
	for _, t := range destinationTypes {
		if clean(string(t)) == want {
			return t, nil
		}
	}

	return "", errors.Wrapf(ErrUnknownDestination, "%q", s)
}

// LegacyAction maps a legacy action spelling onto the current actions, ignoring case.
func LegacyAction(s string) (Action, error) {
	return ParseAction(strings.ToLower(s))
}

// ToTransformation converts the legacy manifest into the current representation.
// Every credential name is looked up through env; an unset variable is an error.
// The conversion always produces a read/write authentication pair, mirroring how
// the legacy dialect was interpreted.
func (l *LegacyTransformation) ToTransformation(env Resolver) (*Transformation, error) {
	read, write := &CredentialSet{}, &CredentialSet{}

	if l.Authentication != nil {
		var err error
		switch {
		case l.Authentication.Shared != nil:
			if read, err = l.Authentication.Shared.credentials(env, "authentication"); err != nil {
				return nil, err
			}
			shared := *read
			write = &shared
		default:
			if l.Authentication.Read != nil {
				if read, err = l.Authentication.Read.credentials(env, "authentication.read"); err != nil {
					return nil, err
				}
			}
			if l.Authentication.Write != nil {
				if write, err = l.Authentication.Write.credentials(env, "authentication.write"); err != nil {
					return nil, err
				}
			}
		}
	}

	if l.APIKey != nil {
		if err := l.APIKey.apply(env, read, write); err != nil {
			return nil, err
		}
	}

	destination, err := l.Destination.toDestination()
	if err != nil {
		return nil, err
	}

	action, err := LegacyAction(l.Action)
	if err != nil {
		return nil, err
	}

	t := &Transformation{
		ExternalID:       l.ExternalID,
		Name:             l.Name,
		Query:            Query{File: l.Query},
		Authentication:   Authentication{Read: read, Write: write},
		Destination:      destination,
		Notifications:    l.Notifications,
		Shared:           l.Shared,
		IgnoreNullFields: l.IgnoreNullFields,
		Action:           action,
		Legacy:           true,
	}

	if l.Schedule != "" {
		t.Schedule = &Schedule{Interval: l.Schedule}
	}

	return t, nil
}

func (o *LegacyOAuth) credentials(env Resolver, field string) (*CredentialSet, error) {
	clientID, err := lookupOptional(env, o.ClientID, field+".clientId")
	if err != nil {
		return nil, err
	}

	clientSecret, err := lookupOptional(env, o.ClientSecret, field+".clientSecret")
	if err != nil {
		return nil, err
	}

	return &CredentialSet{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		TokenURL:       o.TokenURL,
		Scopes:         o.Scopes,
		CDFProjectName: o.CDFProjectName,
		Audience:       o.Audience,
	}, nil
}

func (k *LegacyAPIKey) apply(env Resolver, read, write *CredentialSet) error {
	if k.Shared != "" {
		key, err := lookup(env, k.Shared, "apiKey")
		if err != nil {
			return err
		}

		read.APIKey, write.APIKey = key, key
		return nil
	}

	var err error
	if read.APIKey, err = lookupOptional(env, k.Read, "apiKey.read"); err != nil {
		return err
	}

	write.APIKey, err = lookupOptional(env, k.Write, "apiKey.write")
	return err
}

func (d LegacyDestination) toDestination() (Destination, error) {
	t, err := LegacyDestinationType(d.Type)
	if err != nil {
		return Destination{}, err
	}

	return Destination{Type: t, Database: d.RawDatabase, Table: d.RawTable}, nil
}

func lookup(env Resolver, name, field string) (string, error) {
	v, ok := env.LookupEnv(name)
	if !ok {
		return "", errors.Wrapf(ErrMissingEnv, "%s references %q", field, name)
	}

	return v, nil
}

func lookupOptional(env Resolver, name, field string) (string, error) {
	if name == "" {
		return "", nil
	}

	return lookup(env, name, field)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *LegacyAuthentication) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: authentication must be a mapping", node.Line)
	}

	var raw struct {
		LegacyOAuth `yaml:",inline"`

		Read  *LegacyOAuth `yaml:"read"`
		Write *LegacyOAuth `yaml:"write"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	a.Read, a.Write = raw.Read, raw.Write
	if a.Read == nil && a.Write == nil {
		shared := raw.LegacyOAuth
		a.Shared = &shared
		return nil
	}

	if !raw.LegacyOAuth.isZero() {
		return errors.Wrapf(ErrAuthShape, "line %d", node.Line)
	}

	return nil
}

func (o LegacyOAuth) isZero() bool {
	return o.ClientID == "" &&
		o.ClientSecret == "" &&
		o.TokenURL == "" &&
		len(o.Scopes) == 0 &&
		o.CDFProjectName == "" &&
		o.Audience == ""
}

// UnmarshalYAML implements yaml.Unmarshaler. Accepts a variable name or {read, write}.
func (k *LegacyAPIKey) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		k.Shared = node.Value
		return nil
	case yaml.MappingNode:
		type plain LegacyAPIKey
		return node.Decode((*plain)(k))
	default:
		return errors.Errorf("line %d: apiKey must be a string or a mapping", node.Line)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler. Accepts a type name or a mapping.
func (d *LegacyDestination) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		d.Type = node.Value
		return nil
	case yaml.MappingNode:
		type plain LegacyDestination
		return node.Decode((*plain)(d))
	default:
		return errors.Errorf("line %d: destination must be a string or a mapping", node.Line)
	}
}
