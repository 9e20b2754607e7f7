package plugin

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Action describes one capability the plugin offers to the agent host.
// Parameters holds the JSON Schema of the action's input.
type Action struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// Manifest is served to the agent host so it can register the plugin's
// actions without out-of-band configuration.
type Manifest struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Actions []Action `json:"actions"`
}

// GenerateSchema creates a JSON Schema from the given Go type. It uses
// reflection to inspect the type structure and generates a schema suitable
// for publishing in the action manifest.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}
