package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidConfig marks widget configuration rejected by its schema.
var ErrInvalidConfig = errors.New("dashboard: invalid widget configuration")

// ConfigValidator validates widget configuration against the definition.
type ConfigValidator interface {
	Validate(def WidgetDefinition, config map[string]any) error
}

// JSONSchemaValidator validates configuration with JSON Schema. Compiled
// schemas are cached by definition code and schema hash, so a definition
// re-registered from a manifest with a new schema is recompiled.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{compiled: make(map[string]*jsonschema.Schema)}
}

// Validate reports ErrInvalidConfig when config does not satisfy the schema.
// Definitions without a schema accept anything.
func (v *JSONSchemaValidator) Validate(def WidgetDefinition, config map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	payload, err := jsonRoundTrip(config)
	if err != nil {
		return fmt.Errorf("dashboard: normalize config for %s: %w", def.Code, err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, def.Code, err)
	}
	return nil
}

// Check compiles the definition schema without validating a payload.
func (v *JSONSchemaValidator) Check(def WidgetDefinition) error {
	if len(def.Schema) == 0 {
		return nil
	}
	_, err := v.schemaFor(def)
	return err
}

// jsonRoundTrip turns typed Go values ([]string, int) into the generic JSON
// shapes the schema library expects.
func jsonRoundTrip(config map[string]any) (any, error) {
	if config == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (v *JSONSchemaValidator) schemaFor(def WidgetDefinition) (*jsonschema.Schema, error) {
	key := def.Code + "@" + configHash(def.Schema)
	v.mu.RLock()
	schema, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Code, err)
	}
	compiler := jsonschema.NewCompiler()
	name := def.Code + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Code, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", def.Code, err)
	}
	v.mu.Lock()
	v.compiled[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopConfigValidator struct{}

func (noopConfigValidator) Validate(WidgetDefinition, map[string]any) error { return nil }
