package openapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Operation describes one read-only endpoint to surface in OpenAPI.
type Operation struct {
	Method      string
	Path        string
	Summary     string
	Description string
	Tags        []string
	Localized   bool   // accepts ?lang, answers with the localized envelope
	Schema      string // name of the payload schema under components
	List        bool   // payload is an array of Schema
}

// Registry holds the registered operations and payload schemas.
type Registry struct {
	Ops     []Operation
	Schemas map[string]any
}

func NewRegistry() *Registry { return &Registry{Ops: []Operation{}, Schemas: map[string]any{}} }

func (r *Registry) Register(op Operation) {
	if op.Method == "" {
		op.Method = http.MethodGet
	}
	op.Method = strings.ToLower(op.Method)
	r.Ops = append(r.Ops, op)
}

// Schema adds a named schema under components/schemas.
func (r *Registry) Schema(name string, schema map[string]any) {
	r.Schemas[name] = schema
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func jsonContent(schema any) map[string]any {
	return map[string]any{"application/json": map[string]any{"schema": schema}}
}

// Build produces an OpenAPI 3.1 document for the registered operations.
// Bearer security is declared when secured is true.
func (r *Registry) Build(serviceName, version string, locales []string, secured bool) map[string]any {
	paths := map[string]any{}
	for _, op := range r.Ops {
		if _, ok := paths[op.Path]; !ok {
			paths[op.Path] = map[string]any{}
		}
		var payload any = ref(op.Schema)
		if op.List {
			payload = map[string]any{"type": "array", "items": ref(op.Schema)}
		}
		if op.Localized {
			payload = map[string]any{
				"type": "object",
				"properties": map[string]any{
					"lang":     map[string]any{"type": "string", "enum": locales},
					"response": payload,
				},
				"required": []string{"lang", "response"},
			}
		}
		responses := map[string]any{
			"200": map[string]any{"description": "OK", "content": jsonContent(payload)},
			"405": map[string]any{"description": "Method not allowed", "content": jsonContent(ref("ErrorPayload"))},
			"501": map[string]any{"description": "Not available", "content": jsonContent(ref("ErrorPayload"))},
		}
		params := []map[string]any{}
		if op.Localized {
			params = append(params, map[string]any{
				"name":        "lang",
				"in":          "query",
				"required":    false,
				"description": "Locale of the response, case-insensitive. Defaults to the first supported locale.",
				"schema":      map[string]any{"type": "string"},
			})
			responses["400"] = map[string]any{"description": "Unsupported language", "content": jsonContent(ref("ErrorPayload"))}
		}
		m := map[string]any{
			"summary":     op.Summary,
			"description": op.Description,
			"tags":        op.Tags,
			"parameters":  params,
			"responses":   responses,
		}
		paths[op.Path].(map[string]any)[op.Method] = m
	}
	schemas := map[string]any{
		"ErrorPayload": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code":    map[string]any{"type": "integer"},
				"message": map[string]any{"type": "string"},
				"fields":  map[string]any{"type": "string"},
			},
		},
	}
	for k, v := range r.Schemas {
		schemas[k] = v
	}
	components := map[string]any{"schemas": schemas}
	doc := map[string]any{
		"openapi":    "3.1.0",
		"info":       map[string]any{"title": serviceName, "version": version},
		"paths":      paths,
		"components": components,
	}
	if secured {
		components["securitySchemes"] = map[string]any{
			"bearer": map[string]any{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
		}
		doc["security"] = []map[string]any{{"bearer": []string{}}}
	}
	return doc
}

// ServeHandler returns an HTTP handler that serves the built OpenAPI JSON.
func (r *Registry) ServeHandler(serviceName, version string, locales []string, secured bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.Build(serviceName, version, locales, secured))
	}
}
