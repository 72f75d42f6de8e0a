package executor

// cfgString reads a string field from a node's static configuration.
func cfgString(cfg map[string]interface{}, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

// cfgInt reads an integer field, tolerating the float64 shape JSON decoding produces.
func cfgInt(cfg map[string]interface{}, key string, def int) int {
	switch v := cfg[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// cfgFloat reads a float field.
func cfgFloat(cfg map[string]interface{}, key string, def float64) float64 {
	if v, ok := cfg[key].(float64); ok {
		return v
	}
	return def
}

// cfgBool reads a boolean field.
func cfgBool(cfg map[string]interface{}, key string, def bool) bool {
	if v, ok := cfg[key].(bool); ok {
		return v
	}
	return def
}

// cfgSlice reads a []interface{} field.
func cfgSlice(cfg map[string]interface{}, key string) []interface{} {
	if v, ok := cfg[key].([]interface{}); ok {
		return v
	}
	return nil
}

// cfgMap reads a map[string]interface{} field.
func cfgMap(cfg map[string]interface{}, key string) map[string]interface{} {
	if v, ok := cfg[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
