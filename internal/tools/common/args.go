package common

import (
	"fmt"
	"math"
	"strconv"
)

// GetIDArg returns a required positive integer ID argument.
// JSON numbers arrive as float64; numeric strings are accepted too.
func GetIDArg(args map[string]interface{}, name string) (int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// GetOptionalIntArg returns an integer argument, or nil when it is absent.
// The value is not range-checked.
func GetOptionalIntArg(args map[string]interface{}, name string) (*int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("%s is out of range", name)
	}
	i := int(n)
	return &i, nil
}

// GetStringArg returns a string argument or def when absent or empty.
func GetStringArg(args map[string]interface{}, name, def string) string {
	if s, ok := args[name].(string); ok && s != "" {
		return s
	}
	return def
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > 1<<53 {
			return 0, fmt.Errorf("must be an integer, got %v", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("must be an integer, got %T", v)
	}
}
