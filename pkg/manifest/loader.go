package manifest

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	// legacyMarker matches a top-level "legacy: true" line in any letter case.
	legacyMarker = regexp.MustCompile(`(?im)^legacy[ \t]*:[ \t]*true[ \t]*(#.*)?\r?$`)

	// envReference matches ${NAME} references substituted before parsing.
	envReference = regexp.MustCompile(`\$\{([^{}]+)\}`)
)

type (
	// Options controls how manifests are loaded.
	Options struct {
		// Env resolves ${NAME} references and legacy credential names. Defaults to
		// the process environment.
		Env Resolver

		// ForceLegacy parses every manifest with the legacy schema, whether or not
		// it carries the legacy marker.
		ForceLegacy bool
	}

	// Set maps manifest paths to the transformations they describe.
	Set map[string]*Transformation
)

// Load reads every *.yaml and *.yml file below dir, parses and validates each
// one and returns them keyed by path. Hidden directories are skipped. An empty
// dir means the current directory.
//
// Loading is all or nothing: the first file that fails to parse or validate
// aborts the whole load with a *ConfigError naming that file. External ids must
// be unique across the returned set.
//
// Example:
//
//	manifests, err := manifest.Load("./transformations", manifest.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, path := range manifests.Paths() {
//		fmt.Printf("%s: %s\n", path, manifests[path].ExternalID)
//	}
func Load(dir string, opts Options) (Set, error) {
	if dir == "" {
		dir = "."
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &ConfigError{Path: dir, Err: ErrNotDirectory}
	}

	paths, err := discover(dir)
	if err != nil {
		return nil, &ConfigError{Path: dir, Err: err}
	}

	set := make(Set, len(paths))
	owners := make(map[string]string, len(paths))
	for _, path := range paths {
		t, err := LoadFile(path, opts)
		if err != nil {
			return nil, err
		}

		if owner, ok := owners[t.ExternalID]; ok {
			return nil, &ConfigError{
				Path: path,
				Err:  errors.Wrapf(ErrDuplicateExternalID, "%q is also defined in %s", t.ExternalID, owner),
			}
		}

		owners[t.ExternalID] = path
		set[path] = t
	}

	return set, nil
}

// LoadFile reads, parses and validates a single manifest.
func LoadFile(path string, opts Options) (*Transformation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError(path, errors.Wrap(err, "failed to read manifest"))
	}

	t, err := Parse(data, opts)
	if err != nil {
		return nil, configError(path, err)
	}

	return t, nil
}

// Parse decodes a manifest document and validates the result. Documents with a
// legacy marker, or any document when opts.ForceLegacy is set, are decoded with
// the legacy schema and converted.
func Parse(data []byte, opts Options) (*Transformation, error) {
	env := opts.Env
	if env == nil {
		env = Environ
	}

	data = substituteEnv(data, env)

	var t *Transformation
	if opts.ForceLegacy || IsLegacy(data) {
		legacy := newLegacyTransformation()
		if err := decodeStrict(data, legacy); err != nil {
			return nil, err
		}

		converted, err := legacy.ToTransformation(env)
		if err != nil {
			return nil, err
		}

		t = converted
	} else {
		t = newTransformation()
		if err := decodeStrict(data, t); err != nil {
			return nil, err
		}
	}

	if err := Validate(t); err != nil {
		return nil, err
	}

	return t, nil
}

// IsLegacy reports whether data carries a top-level "legacy: true" marker. The
// check is textual so that it works before the document is parsed against
// either schema.
func IsLegacy(data []byte) bool {
	return legacyMarker.Match(data)
}

// Paths returns the manifest paths in lexical order.
func (s Set) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}

	slices.Sort(paths)
	return paths
}

// Transformations returns the manifests ordered by path.
func (s Set) Transformations() []*Transformation {
	paths := s.Paths()
	out := make([]*Transformation, len(paths))
	for i, p := range paths {
		out[i] = s[p]
	}

	return out
}

// ExternalIDs returns the external ids ordered by manifest path.
func (s Set) ExternalIDs() []string {
	ids := make([]string, 0, len(s))
	for _, t := range s.Transformations() {
		ids = append(ids, t.ExternalID)
	}

	return ids
}

func discover(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}

		return nil
	})

	return paths, err
}

// decodeStrict normalises every mapping key and decodes the result into out,
// rejecting keys that out does not declare.
func decodeStrict(data []byte, out any) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "invalid YAML")
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return ErrEmptyManifest
	}

	normalizeKeys(&doc)
	normalized, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, "failed to normalise manifest keys")
	}

	dec := yaml.NewDecoder(bytes.NewReader(normalized))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// normalizeKeys rewrites every mapping key so that externalId, external_id,
// external-id and EXTERNALID all decode into the same field.
func normalizeKeys(node *yaml.Node) {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			normalizeKeys(child)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind == yaml.ScalarNode && key.Value != "<<" {
				key.Value = normalizeKey(key.Value)
			}
			normalizeKeys(node.Content[i+1])
		}
	}
}

func normalizeKey(key string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(key))
}

func substituteEnv(data []byte, env Resolver) []byte {
	return envReference.ReplaceAllFunc(data, func(ref []byte) []byte {
		name := string(ref[2 : len(ref)-1])
		if v, ok := env.LookupEnv(name); ok {
			return []byte(v)
		}

		return ref
	})
}
