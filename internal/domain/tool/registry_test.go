package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"docbot/internal/domain/tool"
)

func noopInvoke(reply string) tool.InvokeFunc {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		return reply, nil
	}
}

func TestRegistry_Register(t *testing.T) {
	t.Run("first definition wins on duplicates", func(t *testing.T) {
		registry := tool.NewRegistry(zerolog.Nop())
		registry.Register(tool.Definition{Name: "search", Invoke: noopInvoke("first")})
		registry.Register(tool.Definition{Name: "search", Invoke: noopInvoke("second")})

		def, ok := registry.Find("search")
		if !ok {
			t.Fatal("Find(search) not found")
		}
		out, err := def.Invoke(context.Background(), nil)
		if err != nil {
			t.Fatalf("Invoke() error = %v", err)
		}
		if out != "first" {
			t.Errorf("duplicate registration replaced the original: got %q", out)
		}
		if len(registry.List()) != 1 {
			t.Errorf("List() = %d definitions, want 1", len(registry.List()))
		}
	})

	t.Run("incomplete definitions are skipped", func(t *testing.T) {
		registry := tool.NewRegistry(zerolog.Nop())
		registry.Register(tool.Definition{Name: "", Invoke: noopInvoke("x")})
		registry.Register(tool.Definition{Name: "no_invoker"})

		if got := len(registry.List()); got != 0 {
			t.Errorf("List() = %d definitions, want 0", got)
		}
	})
}

func TestRegistry_Find(t *testing.T) {
	registry := tool.NewRegistry(zerolog.Nop())
	registry.Register(tool.Definition{Name: "search_docs", Invoke: noopInvoke("ok")})

	tests := []struct {
		name  string
		query string
		found bool
	}{
		{name: "exact match", query: "search_docs", found: true},
		{name: "case sensitive", query: "Search_Docs", found: false},
		{name: "no partial match", query: "search", found: false},
		{name: "unknown", query: "other", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := registry.Find(tt.query); ok != tt.found {
				t.Errorf("Find(%q) found = %v, want %v", tt.query, ok, tt.found)
			}
		})
	}
}

func TestRegistry_Specs(t *testing.T) {
	registry := tool.NewRegistry(zerolog.Nop())
	registry.Register(tool.Definition{Name: "beta", Description: "b", Invoke: noopInvoke("b")})
	registry.Register(tool.Definition{Name: "alpha", Description: "a", Invoke: noopInvoke("a")})

	specs := registry.Specs()
	if len(specs) != 2 {
		t.Fatalf("Specs() = %d entries, want 2", len(specs))
	}
	// Registration order, not lexical order.
	if specs[0].Function.Name != "beta" || specs[1].Function.Name != "alpha" {
		t.Errorf("Specs() order = [%s %s], want [beta alpha]", specs[0].Function.Name, specs[1].Function.Name)
	}
	for _, spec := range specs {
		if spec.Type != "function" {
			t.Errorf("spec type = %s, want function", spec.Type)
		}
	}
}

func TestFileSearchSpec(t *testing.T) {
	spec := tool.FileSearchSpec()
	if spec.Type != "file_search" {
		t.Errorf("FileSearchSpec().Type = %s, want file_search", spec.Type)
	}
	if spec.Function != nil {
		t.Error("FileSearchSpec() must not carry a function block")
	}
}

func TestGenerateSchema(t *testing.T) {
	type params struct {
		Query string `json:"query" jsonschema:"required"`
		Limit int    `json:"limit,omitempty"`
	}

	schema := tool.GenerateSchema[params]()
	if schema == nil {
		t.Fatal("GenerateSchema() = nil")
	}
	if schema.Type != "object" {
		t.Errorf("schema type = %s, want object", schema.Type)
	}

	found := false
	for _, name := range schema.Required {
		if name == "query" {
			found = true
		}
	}
	if !found {
		t.Errorf("schema.Required = %v, want it to include query", schema.Required)
	}
}
