package manifest

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotDirectory is returned when the manifest root is not a directory.
	ErrNotDirectory = errors.New("transformation root folder not found")
	// ErrMissingField is returned when a required manifest key is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrUnknownDestination is returned for unrecognised destination types.
	ErrUnknownDestination = errors.New("invalid destination type")
	// ErrUnknownAction is returned for unrecognised conflict actions.
	ErrUnknownAction = errors.New("invalid action type")
	// ErrInvalidDestination is returned when a destination lacks its required fields.
	ErrInvalidDestination = errors.New("invalid destination")
	// ErrMixedAuth is returned when a credential set has both an API key and OAuth fields.
	ErrMixedAuth = errors.New("api key and OAuth credentials cannot be mixed")
	// ErrAuthShape is returned when shared and read/write credentials are both given.
	ErrAuthShape = errors.New("authentication cannot mix shared and read/write credentials")
	// ErrDataSetConflict is returned when both dataSetId and dataSetExternalId are set.
	ErrDataSetConflict = errors.New("only one of dataSetId and dataSetExternalId can be set")
	// ErrDuplicateExternalID is returned when two manifests share an external id.
	ErrDuplicateExternalID = errors.New("external id used more than once")
	// ErrMissingEnv is returned when a legacy manifest references an unset variable.
	ErrMissingEnv = errors.New("environment variable not set")
	// ErrEmptyManifest is returned for files with no YAML document.
	ErrEmptyManifest = errors.New("manifest is empty")
)

// ConfigError reports a manifest that could not be loaded, parsed or validated.
// Path is the offending file (or the root directory) and Err the underlying cause.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to parse transformation config: %v", e.Err)
	}

	return fmt.Sprintf("failed to parse transformation config %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying cause for errors.Cause.
func (e *ConfigError) Cause() error {
	return e.Err
}

func configError(path string, err error) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return err
	}

	return &ConfigError{Path: path, Err: err}
}
