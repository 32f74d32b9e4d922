package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

//go:embed scenario.schema.json
var builtinSchema []byte

const builtinSchemaURL = "https://github.com/lian99/Operating-Systems/scenario.schema.json"

// SchemaValidator checks raw scenario documents against a JSON schema.
type SchemaValidator struct {
	source string
	schema *jsonschema.Schema
	logger *zap.Logger
}

// NewSchemaValidator compiles the schema in schemaFile, or the built-in
// scenario schema when schemaFile is empty.
func NewSchemaValidator(schemaFile string, logger *zap.Logger) (*SchemaValidator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	compiler := jsonschema.NewCompiler()

	source := schemaFile
	if source == "" {
		source = builtinSchemaURL
		if err := compiler.AddResource(source, bytes.NewReader(builtinSchema)); err != nil {
			return nil, errors.Wrap(err, "add built-in schema")
		}
	}

	schema, err := compiler.Compile(source)
	if err != nil {
		logger.Error("NewSchemaValidator: schema compilation error", zap.String("source", source), zap.Error(err))
		return nil, errors.Wrapf(err, "compile schema %s", source)
	}
	logger.Debug("NewSchemaValidator: compiled", zap.String("source", source))
	return &SchemaValidator{
		source: source,
		schema: schema,
		logger: logger,
	}, nil
}

// Validate unmarshals data and checks it against the schema. It returns the
// decoded document so callers do not have to parse it twice.
func (sv *SchemaValidator) Validate(data []byte) (any, error) {
	var d any
	if err := json.Unmarshal(data, &d); err != nil {
		sv.logger.Error("Validate: unable to unmarshal data", zap.Error(err))
		return nil, errors.Wrap(err, "parse scenario")
	}
	if err := sv.schema.Validate(d); err != nil {
		sv.logger.Error("Validate: data does not conform to the schema", zap.String("source", sv.source), zap.Error(err))
		return nil, errors.Wrap(err, "validate scenario")
	}
	return d, nil
}
