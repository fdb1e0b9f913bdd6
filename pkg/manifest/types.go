package manifest

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ActionCreate is the deprecated spelling of ActionAbort.
	ActionCreate Action = "create"
	// ActionAbort fails the job when a row conflicts with an existing item.
	ActionAbort Action = "abort"
	// ActionUpdate only updates existing items.
	ActionUpdate Action = "update"
	// ActionUpsert creates or updates items.
	ActionUpsert Action = "upsert"
	// ActionDelete deletes the items matched by the query.
	ActionDelete Action = "delete"
)

var actions = []Action{ActionCreate, ActionAbort, ActionUpdate, ActionUpsert, ActionDelete}

type (
	// Transformation is the desired state of a single transformation as described by
	// one manifest file. Legacy manifests are converted into this representation at
	// load time, so everything downstream of the loader only ever sees this type.
	Transformation struct {
		// ExternalID identifies the transformation, its schedule and its notifications.
		ExternalID string `yaml:"externalid"`

		Name string `yaml:"name"`

		Query Query `yaml:"query"`

		Authentication Authentication `yaml:"authentication"`

		// Schedule is nil when the transformation should not be scheduled.
		Schedule *Schedule `yaml:"schedule"`

		Destination Destination `yaml:"destination"`

		// DataSetID and DataSetExternalID are mutually exclusive.
		DataSetID         *int64 `yaml:"datasetid"`
		DataSetExternalID string `yaml:"datasetexternalid"`

		// Notifications holds the email destinations to notify on job failures.
		Notifications []string `yaml:"notifications"`

		Shared           bool   `yaml:"shared"`
		IgnoreNullFields bool   `yaml:"ignorenullfields"`
		Action           Action `yaml:"action"`

		// Legacy is true when the manifest was converted from the legacy schema.
		Legacy bool `yaml:"legacy"`

		Tags []string `yaml:"tags"`
	}

	// Query is either literal SQL or a reference to a SQL file. File paths are
	// resolved relative to the manifest that declares them.
	Query struct {
		SQL  string
		File string
	}

	// Schedule is a cron expression plus a paused flag. A bare string in a manifest
	// produces an unpaused schedule.
	Schedule struct {
		Interval string `yaml:"interval"`
		IsPaused bool   `yaml:"ispaused"`
	}

	// Authentication holds either one credential set used for both reading and
	// writing, or a separate pair of read and write credential sets.
	Authentication struct {
		Shared *CredentialSet
		Read   *CredentialSet
		Write  *CredentialSet
	}

	// CredentialSet is an API key or an OAuth2 client-credentials configuration.
	CredentialSet struct {
		APIKey         string   `yaml:"apikey"`
		ClientID       string   `yaml:"clientid"`
		ClientSecret   string   `yaml:"clientsecret"`
		TokenURL       string   `yaml:"tokenurl"`
		Scopes         []string `yaml:"scopes"`
		CDFProjectName string   `yaml:"cdfprojectname"`
		Audience       string   `yaml:"audience"`
	}

	// Action is the conflict mode applied when writing to the destination.
	Action string
)

// newTransformation returns a Transformation populated with schema defaults.
// Decoding into it keeps the defaults for every key the manifest omits.
func newTransformation() *Transformation {
	return &Transformation{
		Shared:           true,
		IgnoreNullFields: true,
		Action:           ActionUpsert,
	}
}

// ParseAction returns the Action matching s exactly.
func ParseAction(s string) (Action, error) {
	for _, a := range actions {
		if string(a) == s {
			return a, nil
		}
	}

	return "", errors.Wrapf(ErrUnknownAction, "%q", s)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	action, err := ParseAction(s)
	if err != nil {
		return err
	}

	*a = action
	return nil
}

// IsFile reports whether the query must be read from a file.
func (q Query) IsFile() bool {
	return q.File != ""
}

// IsZero reports whether neither SQL nor a file was given.
func (q Query) IsZero() bool {
	return q.SQL == "" && q.File == ""
}

// UnmarshalYAML implements yaml.Unmarshaler. Accepts a plain string or {file: path}.
func (q *Query) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		q.SQL = node.Value
		return nil
	case yaml.MappingNode:
		var ref struct {
			File string `yaml:"file"`
		}
		if err := node.Decode(&ref); err != nil {
			return err
		}

		q.File = ref.File
		return nil
	default:
		return errors.Errorf("line %d: query must be a string or a mapping with a file key", node.Line)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler. Accepts a cron string or
// {interval, isPaused}.
func (s *Schedule) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s.Interval = node.Value
		s.IsPaused = false
		return nil
	case yaml.MappingNode:
		type plain Schedule
		return node.Decode((*plain)(s))
	default:
		return errors.Errorf("line %d: schedule must be a string or a mapping", node.Line)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler. Flat credential keys populate
// Shared, while read and write keys populate Read and Write. Both may be
// decoded from the same mapping so that validation can reject the mix.
func (a *Authentication) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: authentication must be a mapping", node.Line)
	}

	var raw struct {
		CredentialSet `yaml:",inline"`

		Read  *CredentialSet `yaml:"read"`
		Write *CredentialSet `yaml:"write"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	a.Read = raw.Read
	a.Write = raw.Write
	if !raw.CredentialSet.IsZero() {
		shared := raw.CredentialSet
		a.Shared = &shared
	}

	return nil
}

// IsZero reports whether no credentials were given at all.
func (a Authentication) IsZero() bool {
	return a.Shared == nil && a.Read == nil && a.Write == nil
}

// IsReadWrite reports whether separate read and write credentials were given.
func (a Authentication) IsReadWrite() bool {
	return a.Read != nil || a.Write != nil
}

// ReadCredentials returns the credentials used to read from the source.
func (a Authentication) ReadCredentials() *CredentialSet {
	if a.Shared != nil {
		return a.Shared
	}

	return a.Read
}

// WriteCredentials returns the credentials used to write to the destination.
func (a Authentication) WriteCredentials() *CredentialSet {
	if a.Shared != nil {
		return a.Shared
	}

	return a.Write
}

// IsZero reports whether every field is empty.
func (c CredentialSet) IsZero() bool {
	return c.APIKey == "" && !c.HasOAuth()
}

// HasOAuth reports whether any OAuth2 field is set.
func (c CredentialSet) HasOAuth() bool {
	return c.ClientID != "" ||
		c.ClientSecret != "" ||
		c.TokenURL != "" ||
		len(c.Scopes) > 0 ||
		c.CDFProjectName != "" ||
		c.Audience != ""
}
