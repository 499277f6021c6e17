// Package config reads the project's solbuild.toml manifest: the
// allowed compiler versions/settings, per-source-name overrides, and
// the third-party package root map the Resolver's lookup_package
// callback consumes. It uses the same go-toml query-mapper style
// ("tomlMapper", Tree.Query) as the teacher's toml.go, adapted from
// dep's dependency/override/ignore tables to solbuild's compiler
// tables.
package config

import (
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/gosolc/buildcore/internal/model"
)

// ManifestName is the default filename solbuild looks for in the
// project root.
const ManifestName = "solbuild.toml"

// Manifest is the parsed, semantically-typed project configuration.
type Manifest struct {
	Allowed      []*model.CompilerConfig
	Overrides    map[model.SourceName]*model.CompilerConfig
	PackageRoots map[string]string

	// CacheDir and Offline are seeded from the manifest but may be
	// overridden by the CACHE_DIR / OFFLINE environment variables
	// (§6), read the way the teacher's cmd/dep commands layer env on
	// top of manifest/flag values.
	CacheDir string
	Offline  bool
}

type tomlMapper struct {
	Tree  *toml.Tree
	Error error
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading manifest %s", path)
	}

	mapper := &tomlMapper{Tree: tree}

	m := &Manifest{
		Allowed:      readCompilers(mapper, "compilers"),
		Overrides:    readOverrides(mapper, "overrides"),
		PackageRoots: readPackageRoots(mapper, "packages"),
		CacheDir:     readKeyAsStringDefault(mapper, "cache_dir", ""),
	}
	if mapper.Error != nil {
		return nil, mapper.Error
	}

	applyEnv(m)
	return m, nil
}

// applyEnv layers CACHE_DIR / OFFLINE environment variables over the
// manifest's own values (§6).
func applyEnv(m *Manifest) {
	if v := os.Getenv("CACHE_DIR"); v != "" {
		m.CacheDir = v
	}
	if v := os.Getenv("OFFLINE"); v != "" {
		m.Offline = v != "0" && v != "false"
	}
}

func readCompilers(mapper *tomlMapper, table string) []*model.CompilerConfig {
	if mapper.Error != nil {
		return nil
	}

	query, err := mapper.Tree.Query("$." + table)
	if err != nil {
		mapper.Error = errors.Wrapf(err, "querying [[%s]]", table)
		return nil
	}
	matches := query.Values()
	if len(matches) == 0 {
		return nil
	}
	trees, ok := matches[0].([]*toml.Tree)
	if !ok {
		mapper.Error = errors.Errorf("[[%s]] should be an array of tables, got %T", table, matches[0])
		return nil
	}

	out := make([]*model.CompilerConfig, 0, len(trees))
	for _, t := range trees {
		sub := &tomlMapper{Tree: t}
		versionStr := readKeyAsString(sub, "version")
		if sub.Error != nil {
			mapper.Error = sub.Error
			return nil
		}
		version, err := semver.NewVersion(versionStr)
		if err != nil {
			mapper.Error = errors.Wrapf(err, "invalid compiler version %q", versionStr)
			return nil
		}
		settings := readTableAsMap(sub, "settings")
		if sub.Error != nil {
			mapper.Error = sub.Error
			return nil
		}
		out = append(out, model.NewCompilerConfig(version, settings))
	}
	return out
}

func readOverrides(mapper *tomlMapper, table string) map[model.SourceName]*model.CompilerConfig {
	if mapper.Error != nil {
		return nil
	}

	sub, ok := mapper.Tree.Get(table).(*toml.Tree)
	if !ok {
		return map[model.SourceName]*model.CompilerConfig{}
	}

	out := make(map[model.SourceName]*model.CompilerConfig)
	for _, key := range sub.Keys() {
		entry, ok := sub.GetPath([]string{key}).(*toml.Tree)
		if !ok {
			mapper.Error = errors.Errorf("[overrides.%s] should be a table", key)
			return nil
		}
		entryMapper := &tomlMapper{Tree: entry}
		versionStr := readKeyAsString(entryMapper, "version")
		if entryMapper.Error != nil {
			mapper.Error = entryMapper.Error
			return nil
		}
		version, err := semver.NewVersion(versionStr)
		if err != nil {
			mapper.Error = errors.Wrapf(err, "invalid override version %q for %s", versionStr, key)
			return nil
		}
		settings := readTableAsMap(entryMapper, "settings")
		out[model.SourceName(key)] = model.NewCompilerConfig(version, settings)
	}
	return out
}

func readPackageRoots(mapper *tomlMapper, table string) map[string]string {
	if mapper.Error != nil {
		return nil
	}
	sub, ok := mapper.Tree.Get(table).(*toml.Tree)
	if !ok {
		return map[string]string{}
	}

	out := make(map[string]string)
	for _, key := range sub.Keys() {
		v, ok := sub.Get(key).(string)
		if !ok {
			mapper.Error = errors.Errorf("[packages].%s should be a string path", key)
			return nil
		}
		out[key] = v
	}
	return out
}

func readTableAsMap(mapper *tomlMapper, key string) map[string]interface{} {
	if mapper.Error != nil {
		return nil
	}
	t, ok := mapper.Tree.Get(key).(*toml.Tree)
	if !ok {
		return nil
	}
	return t.ToMap()
}

func readKeyAsString(mapper *tomlMapper, key string) string {
	if mapper.Error != nil {
		return ""
	}
	v := mapper.Tree.GetDefault(key, "")
	s, ok := v.(string)
	if !ok {
		mapper.Error = errors.Errorf("%s should be a string, got %T", key, v)
		return ""
	}
	return s
}

func readKeyAsStringDefault(mapper *tomlMapper, key, def string) string {
	if mapper.Error != nil {
		return def
	}
	v := mapper.Tree.GetDefault(key, def)
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
