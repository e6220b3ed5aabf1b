package ingest

import (
	"encoding/json"

	yaml "gopkg.in/yaml.v2"

	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/value"
)

// ParseYAML decodes a YAML document into a value.Value, using the
// same key-normalization and conversion rules as file-based
// ingestion. It exists for callers outside this package, such as the
// file value provider, that need to decode a single document read
// from somewhere other than opts.Paths.
func ParseYAML(path string, data []byte) (value.Value, error) {
	const op = "ingest.ParseYAML"
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return value.Value{}, errors.E(errors.Op(op), errors.Path(path), errors.YAMLParse, err)
	}
	return rawToValue(path, normalizeYAMLKeys(doc))
}

// ParseJSON decodes a JSON document into a value.Value.
func ParseJSON(path string, data []byte) (value.Value, error) {
	const op = "ingest.ParseJSON"
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return value.Value{}, errors.E(errors.Op(op), errors.Path(path), errors.Invalid, err)
	}
	return rawToValue(path, doc)
}
