package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/pseudomuto/transformctl/pkg/consts"
	"github.com/urfave/cli/v3"
)

// DotEnvFile is the file read for variables that are not set in the process
// environment.
const DotEnvFile = ".env"

type (
	// Env resolves variables from the process environment, falling back to the
	// values read from a .env file. The process environment is never modified.
	Env map[string]string

	envSource struct {
		env Env
		key string
	}
)

// LoadEnv reads path with godotenv. A missing file yields an empty Env.
func LoadEnv(path string) (Env, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return Env{}, nil
		}

		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	return Env(vals), nil
}

// LookupEnv returns the process value of name, or the .env value when the
// process does not define it.
func (e Env) LookupEnv(name string) (string, bool) {
	if v, ok := os.LookupEnv(name); ok {
		return v, true
	}

	v, ok := e[name]
	return v, ok
}

// Sources returns the flag value sources for the TRANSFORMATIONS_ variable
// with the given suffix, e.g. Sources("API_KEY").
func (e Env) Sources(suffix string) cli.ValueSourceChain {
	key := consts.EnvPrefix + suffix
	return cli.NewValueSourceChain(cli.EnvVar(key), &envSource{env: e, key: key})
}

func (s *envSource) Lookup() (string, bool) {
	v, ok := s.env[s.key]
	return v, ok
}

func (s *envSource) String() string   { return fmt.Sprintf("%s variable %q", DotEnvFile, s.key) }
func (s *envSource) GoString() string { return fmt.Sprintf("&envSource{key:%q}", s.key) }
