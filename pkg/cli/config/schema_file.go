package config

import (
	"bytes"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/plotline-dev/plotline/pkg/domain/model"
)

// LoadSchemaFile reads a form schema definition from a TOML file and checks
// its structure. Version and status in the file are informational; a stored
// version is always assigned on publish.
func LoadSchemaFile(path string) (*model.FormSchema, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read schema file", goerr.V(ConfigPathKey, path))
	}

	schema, err := ParseSchema(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load schema file", goerr.V(ConfigPathKey, path))
	}
	return schema, nil
}

// ParseSchema decodes and validates a TOML form schema
func ParseSchema(data []byte) (*model.FormSchema, error) {
	var schema model.FormSchema
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&schema); err != nil {
		return nil, goerr.Wrap(ErrSchemaFile, "failed to parse TOML schema", goerr.V("reason", err.Error()))
	}

	if err := schema.Validate(); err != nil {
		return nil, goerr.Wrap(err, "schema validation failed", goerr.V("form_key", schema.FormKey))
	}
	return &schema, nil
}

// MarshalSchema encodes a form schema as TOML
func MarshalSchema(schema *model.FormSchema) ([]byte, error) {
	data, err := toml.Marshal(schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode schema", goerr.V("form_key", schema.FormKey))
	}
	return data, nil
}
