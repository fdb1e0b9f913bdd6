package manifest

import "os"

// Environ resolves names against the process environment.
var Environ Resolver = ResolverFunc(os.LookupEnv)

type (
	// Resolver looks up the value of an environment variable by name. Legacy
	// manifests store variable names instead of secrets, and every manifest may
	// contain ${NAME} references; both are resolved through a Resolver so tests
	// never have to touch the process environment.
	Resolver interface {
		LookupEnv(name string) (string, bool)
	}

	// ResolverFunc adapts a function to the Resolver interface.
	ResolverFunc func(name string) (string, bool)

	// MapResolver resolves names from a fixed map.
	MapResolver map[string]string
)

// LookupEnv implements Resolver.
func (f ResolverFunc) LookupEnv(name string) (string, bool) {
	return f(name)
}

// LookupEnv implements Resolver.
func (m MapResolver) LookupEnv(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
