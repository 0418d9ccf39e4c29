// Package tool defines the callable tool contract and the registry that
// owns it.
package tool

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// InvokeFunc executes a tool with raw JSON arguments and returns the text
// that is handed back to the assistant.
type InvokeFunc func(ctx context.Context, args json.RawMessage) (string, error)

// Definition is a statically declared tool: name, description, parameter
// schema and invoker. Declared once at wiring time, immutable afterwards.
type Definition struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Invoke      InvokeFunc
}

// Spec is the wire representation of an advertised tool, as the assistant
// API expects it in a run creation request.
type Spec struct {
	Type     string        `json:"type"`
	Function *FunctionSpec `json:"function,omitempty"`
}

// FunctionSpec describes a callable function inside a Spec.
type FunctionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// Spec converts the definition into its wire representation.
func (d Definition) Spec() Spec {
	return Spec{
		Type: "function",
		Function: &FunctionSpec{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		},
	}
}

// FileSearchSpec is the built-in document search capability that is always
// advertised alongside the registered functions.
func FileSearchSpec() Spec {
	return Spec{Type: "file_search"}
}

// GenerateSchema derives a JSON schema for a tool's parameter struct.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
