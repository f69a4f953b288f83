package analytics

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SchemaName identifies the record schema in structured-output requests.
const SchemaName = "conversation_analytics"

var schemaOnce = sync.OnceValues(buildSchema)

// Schema returns the strict JSON schema for Record. Every property is
// required, no additional properties are allowed, and optional fields accept
// null.
func Schema() (json.RawMessage, error) {
	return schemaOnce()
}

func buildSchema() (json.RawMessage, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	s := reflector.Reflect(&Record{})
	s.Version = ""
	s.ID = ""

	// Properties keep declaration order so the model sees fields in the
	// order the record reads.
	nullable := nullableFields(reflect.TypeOf(Record{}))
	props := orderedmap.New[string, *jsonschema.Schema]()
	var required []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		required = append(required, pair.Key)
		prop := pair.Value
		if nullable[pair.Key] {
			prop = orNull(prop)
		}
		props.Set(pair.Key, prop)
	}
	s.Properties = props
	s.Required = required
	s.AdditionalProperties = jsonschema.FalseSchema

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return raw, nil
}

// nullableFields returns the JSON names of pointer fields.
func nullableFields(t reflect.Type) map[string]bool {
	out := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Ptr {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			name = f.Name
		}
		out[name] = true
	}
	return out
}

func orNull(s *jsonschema.Schema) *jsonschema.Schema {
	desc := s.Description
	s.Description = ""
	return &jsonschema.Schema{
		AnyOf:       []*jsonschema.Schema{s, {Type: "null"}},
		Description: desc,
	}
}
