package extraction

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	jdSchema     = mustSchema("schemas/jd.schema.json")
	resumeSchema = mustSchema("schemas/resume.schema.json")
)

func mustSchema(name string) *gojsonschema.Schema {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// FieldError is one schema violation at a JSON path.
type FieldError struct {
	Field   string
	Message string
}

// SchemaError lists every violation found in one document.
type SchemaError struct {
	Document string
	Errors   []FieldError
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s failed schema validation:", e.Document)
	for i, fe := range e.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, fe.Field, fe.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

func validateSchema(schema *gojsonschema.Schema, document string, payload []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %s is not valid JSON: %v", ErrMalformed, document, err)
	}
	if result.Valid() {
		return nil
	}
	schemaErr := &SchemaError{Document: document, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Errors = append(schemaErr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return fmt.Errorf("%w: %w", ErrMalformed, schemaErr)
}
