package executor

import (
	"fmt"
	"strconv"
	"time"
)

// convertTypedValue converts a value to the specified type, used by
// MEMORY and ACTION runners that accept an explicit declared value type.
//
// Supported types: "string", "number", "boolean", "null".
func convertTypedValue(value interface{}, valueType string) (interface{}, error) {
	switch valueType {
	case "string":
		return fmt.Sprintf("%v", value), nil

	case "number":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot convert %q to number: %w", v, err)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("cannot convert type %T to number", value)
		}

	case "boolean":
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("cannot convert %q to boolean: %w", v, err)
			}
			return b, nil
		case float64:
			return v != 0, nil
		default:
			return nil, fmt.Errorf("cannot convert type %T to boolean", value)
		}

	case "null", "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported type %q", valueType)
	}
}

// parseDuration parses duration strings with support for the standard Go
// suffixes, falling back to bare integers as milliseconds.
func parseDuration(durationStr string) (time.Duration, error) {
	if duration, err := time.ParseDuration(durationStr); err == nil {
		return duration, nil
	}
	if ms, err := strconv.Atoi(durationStr); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return 0, fmt.Errorf("invalid duration format: %s (use formats like '5s', '10m', '1h')", durationStr)
}

// compareValues reports whether two decoded JSON values are equal, used by
// FLOW.switch to match a value against its declared cases.
func compareValues(a, b interface{}) bool {
	switch aVal := a.(type) {
	case float64:
		if bVal, ok := b.(float64); ok {
			return aVal == bVal
		}
	case string:
		if bVal, ok := b.(string); ok {
			return aVal == bVal
		}
	case bool:
		if bVal, ok := b.(bool); ok {
			return aVal == bVal
		}
	}
	return false
}
