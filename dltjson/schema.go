package dltjson

import "github.com/invopop/jsonschema"

// Schema returns a JSON Schema document describing the Record export shape,
// for a consumer of the serialization feature that wants to validate exported
// JSON out of band.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Record{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "DLT record export"
	schema.Description = "Structured JSON projection of a decoded DLT record."
	return schema
}
