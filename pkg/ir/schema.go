package ir

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/ir.schema.json
var irSchemaRaw []byte

var (
	compileOnce   sync.Once
	compiledIR    *jsonschema.Schema
	compileErr    error
	schemaURL     = "https://pel.schemas.local/ir.schema.json"
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(string(irSchemaRaw))); err != nil {
			compileErr = fmt.Errorf("ir: loading embedded schema: %w", err)
			return
		}
		compiledIR, compileErr = c.Compile(schemaURL)
	})
	return compiledIR, compileErr
}

// Validate checks a Document against the embedded IR JSON Schema, a
// conformance double-check beyond the Go struct shape (grounded in the
// teacher's pkg/firewall.Firewall compiling and validating against a
// jsonschema.Draft2020 schema).
func Validate(doc *Document) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("ir: marshaling document for validation: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("ir: unmarshaling document for validation: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("ir: schema validation failed: %w", err)
	}
	return nil
}
