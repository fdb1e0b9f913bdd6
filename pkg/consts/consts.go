package consts

import (
	"os"
	"time"
)

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultBatchSize is the number of items sent in a single mutating API call.
	DefaultBatchSize = 5

	// DefaultCluster is the platform cluster used when none is configured.
	DefaultCluster = "europe-west1-1"

	// DefaultTimeout is the per-request timeout for the transformations API.
	DefaultTimeout = 60 * time.Second

	// DefaultManifestDir is where deploy looks for manifests when no path is given.
	DefaultManifestDir = "."

	// EnvPrefix is the prefix shared by every environment variable the CLI reads.
	EnvPrefix = "TRANSFORMATIONS_"

	// EnvLogLevel controls the zap logger level (debug, info, warn, error).
	EnvLogLevel = EnvPrefix + "LOG_LEVEL"
)
