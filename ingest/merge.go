package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"

	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/value"
)

// tree is the working representation of a document or subtree during
// ingestion: keys map to either a nested tree, a scalar, or a raw
// []interface{} array. Values are whatever the YAML/TOML decoder or
// the environment-value parser produced.
type tree = map[string]interface{}

// expandPaths resolves a mixed file/directory path list into a flat,
// ordered list of document files. A directory's .yaml/.yml/.toml
// entries are sorted lexicographically and spliced in at the
// directory's position.
func expandPaths(paths []string) ([]string, error) {
	const op = "ingest.expandPaths"
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.E(errors.Op(op), errors.Path(p), errors.IO, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, errors.E(errors.Op(op), errors.Path(p), errors.IO, err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".yaml", ".yml", ".toml":
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, filepath.Join(p, n))
		}
	}
	return out, nil
}

// loadDocument parses path according to its extension. An empty file
// is treated as an empty map.
func loadDocument(path string) (tree, error) {
	const op = "ingest.loadDocument"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E(errors.Op(op), errors.Path(path), errors.IO, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return tree{}, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.E(errors.Op(op), errors.Path(path), errors.YAMLParse, err)
		}
		return normalizeYAMLKeys(doc), nil
	case ".toml":
		var doc map[string]interface{}
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, errors.E(errors.Op(op), errors.Path(path), errors.TOMLParse, err)
		}
		return doc, nil
	}
	return nil, errors.E(errors.Op(op), errors.Path(path), errors.Invalid,
		errors.Errorf("unrecognized document extension for %q", path))
}

// normalizeYAMLKeys rewrites gopkg.in/yaml.v2's map[interface{}]interface{}
// nodes (its representation for nested mappings) into map[string]interface{}
// so the rest of the pipeline only ever deals with one map type.
func normalizeYAMLKeys(v interface{}) tree {
	out := tree{}
	m, ok := v.(map[string]interface{})
	if !ok {
		return out
	}
	for k, child := range m {
		out[k] = normalizeYAMLValue(child)
	}
	return out
}

func normalizeYAMLValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := tree{}
		for k, child := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAMLValue(child)
		}
		return out
	case map[string]interface{}:
		return normalizeYAMLKeys(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeYAMLValue(e)
		}
		return out
	default:
		return v
	}
}

// mergeInto deep-merges src into dst in place, recording the source
// tag of every leaf it actually writes into sources (keyed by dot
// path). Maps recurse key-by-key; any other value (including arrays)
// replaces the destination wholesale. A value that is deep-equal to
// the one already present is left untouched (and its source is not
// updated), per the merge rule's equality-check optimization.
func mergeInto(dst tree, src tree, path string, sources map[string]value.Source, src_ value.Source) {
	for k, v := range src {
		childPath := joinPath(path, k)
		if srcMap, ok := v.(tree); ok {
			dstMap, ok := dst[k].(tree)
			if !ok {
				dstMap = tree{}
				dst[k] = dstMap
			}
			mergeInto(dstMap, srcMap, childPath, sources, src_)
			continue
		}
		if existing, ok := dst[k]; ok && reflect.DeepEqual(existing, v) {
			continue
		}
		dst[k] = v
		sources[childPath] = src_
	}
}

// joinPath appends segment to path with a "." separator, except when
// segment already begins with "." (the literal form of the secret and
// provider marker keys, e.g. ".c5encval"), in which case the leading
// dot in segment already serves as the separator.
func joinPath(path, segment string) string {
	if path == "" {
		return segment
	}
	if strings.HasPrefix(segment, ".") {
		return path + segment
	}
	return path + "." + segment
}
