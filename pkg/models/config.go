package models

import (
	"fmt"
	"strconv"
)

// Typed views over the open node config blob. The stored form stays
// schema-less so older engines can carry configs they do not understand;
// decoding happens at the point of interpretation.

// ActionConfig is the config of an action node.
type ActionConfig struct {
	Action string
	Params map[string]any
}

// ConditionConfig is the config of a condition node. Field/Operator/Value is
// the simple comparison form; Operator "expression" switches to an expr
// program kept in Value.
type ConditionConfig struct {
	Field    string
	Operator string
	Value    any
}

// AIConfig is the config of an ai node.
type AIConfig struct {
	PromptTemplate string
	Model          string
}

// DecodeActionConfig extracts the typed action view of a node's config.
func (n *FlowNode) DecodeActionConfig() (ActionConfig, error) {
	action, _ := n.Config["action"].(string)
	if action == "" {
		return ActionConfig{}, fmt.Errorf("action node %s has no action identifier", n.ID)
	}

	params, _ := n.Config["params"].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}

	return ActionConfig{Action: action, Params: params}, nil
}

// DecodeConditionConfig extracts the typed condition view of a node's config.
// Missing pieces are legal; the evaluator treats them as a non-matching
// comparison rather than an error.
func (n *FlowNode) DecodeConditionConfig() ConditionConfig {
	field, _ := n.Config["field"].(string)
	operator, _ := n.Config["operator"].(string)

	return ConditionConfig{
		Field:    field,
		Operator: operator,
		Value:    n.Config["value"],
	}
}

// DecodeAIConfig extracts the typed ai view of a node's config.
func (n *FlowNode) DecodeAIConfig() AIConfig {
	prompt, _ := n.Config["promptTemplate"].(string)
	model, _ := n.Config["model"].(string)

	return AIConfig{PromptTemplate: prompt, Model: model}
}

// ParamString reads a string parameter from an action's params, coercing
// scalar values the way the flow builder serializes them.
func (c ActionConfig) ParamString(key string) string {
	value, ok := c.Params[key]
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParamInt reads an integer parameter. JSON numbers arrive as float64.
func (c ActionConfig) ParamInt(key string) (int, bool) {
	switch v := c.Params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}

// ParamFloat reads a numeric parameter.
func (c ActionConfig) ParamFloat(key string) (float64, bool) {
	return toFloat(c.Params[key])
}
