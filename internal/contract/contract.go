// Package contract checks reports against the published JSON Schema that the CLI
// and HTTP API share.
package contract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ppiankov/fnolroute/internal/model"
)

//go:embed report.schema.json
var reportSchema []byte

const schemaURL = "report.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Schema returns the raw report schema
func Schema() []byte {
	return append([]byte(nil), reportSchema...)
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(reportSchema)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// ValidateJSON validates serialized report bytes.
func ValidateJSON(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal report: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("report does not match schema: %w", err)
	}
	return nil
}

// ValidateReport serializes the report the way the transports do and validates it.
func ValidateReport(report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return ValidateJSON(data)
}
