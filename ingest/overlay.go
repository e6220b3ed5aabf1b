package ingest

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/value"
)

// preloadEnv parses a KEY=VALUE file and calls os.Setenv for every
// variable not already present in the process environment. Blank
// lines and lines starting with "#" are ignored.
func preloadEnv(path string) error {
	const op = "ingest.preloadEnv"
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.E(errors.Op(op), errors.Path(path), errors.DotEnvLoad, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return errors.E(errors.Op(op), errors.Path(path), errors.DotEnvLoad,
				errors.Errorf("malformed line %q, expected KEY=VALUE", line))
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if _, present := os.LookupEnv(key); present {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return errors.E(errors.Op(op), errors.Path(path), errors.DotEnvLoad, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.E(errors.Op(op), errors.Path(path), errors.DotEnvLoad, err)
	}
	return nil
}

const mapForceSuffix = "#map"

// overlayEnviron scans os.Environ() for prefix-matching variables and
// deep-merges each into tree, tracking which destination paths were
// forced to stay maps via the mapForceSuffix marker on a segment.
func overlayEnviron(dst tree, opts Options, sources map[string]value.Source, forceMap map[string]bool) error {
	prefix := opts.envPrefix()
	sep := opts.envSeparator()

	for _, kv := range os.Environ() {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		remainder := strings.TrimPrefix(name, prefix)
		if remainder == "" {
			continue
		}
		rawSegments := strings.Split(remainder, sep)
		segments := make([]string, len(rawSegments))
		path := ""
		for i, seg := range rawSegments {
			forced := len(seg) >= len(mapForceSuffix) &&
				strings.EqualFold(seg[len(seg)-len(mapForceSuffix):], mapForceSuffix)
			if forced {
				seg = seg[:len(seg)-len(mapForceSuffix)]
			}
			converted := convertCase(seg, opts.CaseConvention)
			segments[i] = converted
			path = joinPath(path, converted)
			if forced {
				forceMap[path] = true
			}
		}

		leaf := parseEnvValue(raw)
		setPath(dst, segments, leaf)
		sources[strings.Join(segments, ".")] = value.NewEnvSource(name)
	}
	return nil
}

// setPath writes leaf at the nested path named by segments, creating
// intermediate maps as needed.
func setPath(dst tree, segments []string, leaf interface{}) {
	node := dst
	for i, seg := range segments {
		if i == len(segments)-1 {
			node[seg] = leaf
			return
		}
		child, ok := node[seg].(tree)
		if !ok {
			child = tree{}
			node[seg] = child
		}
		node = child
	}
}

// parseEnvValue interprets a raw environment string value, trying in
// order: boolean, unsigned integer, signed integer, float, else text.
func parseEnvValue(raw string) interface{} {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if u, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return u
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

var (
	lowerCaser = cases.Lower(language.Und)
	titleCaser = cases.Title(language.Und)
)

// convertCase rewrites a single environment-variable path segment
// (already split on the separator) according to convention. Segments
// are assumed to arrive in SCREAMING_SNAKE or plain form, matching
// shell-variable-name conventions.
func convertCase(segment string, convention CaseConvention) string {
	words := splitWords(segment)
	if len(words) == 0 {
		return segment
	}
	switch convention {
	case CaseSnake:
		return strings.Join(lowerWords(words), "_")
	case CaseKebab:
		return strings.Join(lowerWords(words), "-")
	case CaseLower:
		return lowerCaser.String(strings.Join(words, ""))
	default: // CaseCamel
		out := strings.ToLower(words[0])
		for _, w := range words[1:] {
			out += titleCaser.String(strings.ToLower(w))
		}
		return out
	}
}

func lowerWords(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = lowerCaser.String(w)
	}
	return out
}

// splitWords breaks a segment into words on underscores and hyphens.
// A segment with neither is returned as a single word.
func splitWords(segment string) []string {
	fields := strings.FieldsFunc(segment, func(r rune) bool {
		return r == '_' || r == '-'
	})
	if len(fields) == 0 {
		return []string{segment}
	}
	return fields
}
