package models

import (
	"fmt"
	"strconv"

	"github.com/expr-lang/expr"
)

// Condition operators. Anything else evaluates to false without raising an
// error; unrecognized operators are reserved for newer flow definitions
// running on older engines.
const (
	OperatorEquals     = "equals"
	OperatorGt         = "gt"
	OperatorLt         = "lt"
	OperatorExpression = "expression"
)

// EvaluateCondition compares context state against a condition node's config
// and returns the branch to follow. A missing context key is an absent value,
// not an error.
//
// "equals" is deliberately loose: numeric 5 matches the string "5". Saved
// flows depend on the coercive comparison, so it must not be tightened to
// strict equality.
func EvaluateCondition(cfg ConditionConfig, data map[string]any) bool {
	switch cfg.Operator {
	case OperatorEquals:
		return looseEquals(data[cfg.Field], cfg.Value)
	case OperatorGt:
		left, leftOK := toFloat(data[cfg.Field])
		right, rightOK := toFloat(cfg.Value)

		return leftOK && rightOK && left > right
	case OperatorLt:
		left, leftOK := toFloat(data[cfg.Field])
		right, rightOK := toFloat(cfg.Value)

		return leftOK && rightOK && left < right
	case OperatorExpression:
		program, ok := cfg.Value.(string)
		if !ok {
			return false
		}

		return evaluateExpression(program, data)
	default:
		return false
	}
}

// evaluateExpression runs an expr program against the execution context.
// Compilation or runtime errors count as a non-matching branch, consistent
// with the silent default of the simple operators.
func evaluateExpression(program string, data map[string]any) bool {
	compiled, err := expr.Compile(program, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return false
	}

	result, err := expr.Run(compiled, data)
	if err != nil {
		return false
	}

	matched, ok := result.(bool)

	return ok && matched
}

// looseEquals mirrors the coercive equality of the flow builder: when both
// sides read as numbers they compare numerically, otherwise they compare as
// their canonical string forms.
func looseEquals(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}

	leftNum, leftOK := toFloat(left)
	rightNum, rightOK := toFloat(right)

	if leftOK && rightOK {
		return leftNum == rightNum
	}

	return stringify(left) == stringify(right)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}

		return 0, true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
