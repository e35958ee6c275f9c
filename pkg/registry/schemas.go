package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateParams checks an action node's params against the registered
// factory's schema. Unknown action identifiers validate trivially; the
// engine logs and skips them at run time instead of rejecting the flow.
func (r *Registry) ValidateParams(actionID string, params map[string]any) error {
	schema := r.ActionSchema(actionID)
	if schema == nil {
		return nil
	}

	if params == nil {
		params = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		return fmt.Errorf("failed to validate params for action %s: %w", actionID, err)
	}

	if !result.Valid() {
		detail := ""
		for _, resultErr := range result.Errors() {
			if detail != "" {
				detail += "; "
			}

			detail += resultErr.String()
		}

		return fmt.Errorf("invalid params for action %s: %s", actionID, detail)
	}

	return nil
}
