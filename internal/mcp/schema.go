package mcp

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

// inputSchema creates the JSON Schema for a tool's argument struct via
// reflection. Schemas are generated once at registration.
func inputSchema(value any) json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		// Argument structs are static; a marshal failure is a
		// programming error.
		panic(err)
	}
	return raw
}
