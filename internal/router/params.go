package router

import (
	"fmt"

	"github.com/spendguard/spendguard/internal/shared/types"
)

// Success builds a successful result with optional data.
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure builds a failed result. The error return stays nil: a provider
// refusing a request is an answer, not a transport failure.
func Failure(message string) (*types.Result, error) {
	return &types.Result{Success: false, Error: &message}, nil
}

// getString extracts a string parameter.
func getString(params map[string]interface{}, key string, required bool) (string, error) {
	val, ok := params[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required parameter: %s", key)
		}
		return "", nil
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}
	return s, nil
}

// getFloat extracts a numeric parameter. JSON numbers arrive as float64;
// integers are accepted too.
func getFloat(params map[string]interface{}, key string, required bool) (float64, error) {
	val, ok := params[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("missing required parameter: %s", key)
		}
		return 0, nil
	}
	switch n := val.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("parameter %s must be a number", key)
	}
}

// getInt extracts an integer parameter.
func getInt(params map[string]interface{}, key string, required bool) (int, error) {
	f, err := getFloat(params, key, required)
	return int(f), err
}
