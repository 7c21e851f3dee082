package policy

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaURL = "https://verdict-engine.local/schemas/policy.schema.json"

//go:embed policy.schema.json
var schemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func documentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("policy schema load failed: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("policy schema compile failed: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// NormalizeCode canonicalises a jurisdiction code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Decode validates a YAML policy document against the policy schema and
// decodes it. The document's code must match the requested code.
func Decode(code string, data []byte) (*JurisdictionPolicy, error) {
	code = NormalizeCode(code)

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", code, err)
	}
	value, err := jsonValue(doc)
	if err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", code, err)
	}
	schema, err := documentSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("validate policy %s: %w", code, err)
	}

	var p JurisdictionPolicy
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode policy %s: %w", code, err)
	}
	if NormalizeCode(p.Code) != code {
		return nil, fmt.Errorf("policy document code %q does not match requested %q", p.Code, code)
	}
	p.Code = code
	if p.CriminalRelief != nil && p.CriminalRelief.YearBasis == "" {
		p.CriminalRelief.YearBasis = YearBasisCalendar
	}
	return &p, nil
}

// jsonValue converts a YAML-decoded tree into the JSON value model the
// schema validator expects.
func jsonValue(doc any) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("policy document is not JSON-compatible: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}
