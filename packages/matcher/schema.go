package matcher

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateSchema validates v against a JSON schema document.
func ValidateSchema(schema []byte, v value.Value) Result {
	document, err := v.MarshalJSON()
	if err != nil {
		return invalid("failed to marshal actual value: %v", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(document))
	if err != nil {
		return invalid("schema validation error: %v", err)
	}
	if result.Valid() {
		return valid()
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return Result{Reason: fmt.Sprintf("schema validation failed: %s", strings.Join(problems, "; "))}
}
