// Package manifest loads transformation manifests from disk into a single,
// validated in-memory model.
//
// A manifest is one YAML file describing one transformation. Two schema
// generations are supported:
//
//   - the current schema, where credentials are literal values and the query is
//     either inline SQL or {file: path}
//   - the legacy schema, marked with a top-level "legacy: true", where API keys
//     and OAuth client ids/secrets are names of environment variables
//
// Legacy manifests are converted with LegacyTransformation.ToTransformation as
// soon as they are decoded, so callers only ever handle *Transformation values.
//
// # Loading
//
//	manifests, err := manifest.Load("./transformations", manifest.Options{})
//	if err != nil {
//		var cfgErr *manifest.ConfigError
//		if errors.As(err, &cfgErr) {
//			fmt.Println("bad manifest:", cfgErr.Path)
//		}
//		return err
//	}
//
// Keys are matched without regard to case, underscores or dashes, and ${NAME}
// references are substituted from Options.Env before parsing. Every loaded
// manifest has passed Validate.
//
// # Example manifest
//
//	externalId: orders-to-assets
//	name: Orders to assets
//	query:
//	  file: orders.sql
//	destination:
//	  type: raw
//	  rawDatabase: sales
//	  rawTable: orders
//	authentication:
//	  clientId: ${CLIENT_ID}
//	  clientSecret: ${CLIENT_SECRET}
//	  tokenUrl: https://login.example.com/oauth2/token
//	  cdfProjectName: my-project
//	schedule:
//	  interval: "0 * * * *"
//	  isPaused: false
//	notifications:
//	  - data-team@example.com
package manifest
