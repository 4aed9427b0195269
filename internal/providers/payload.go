package providers

import "strconv"

// getString reads a string field, tolerating absence or a wrong type.
func getString(p Payload, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// getNested reads p[outer][inner] as a string.
func getNested(p Payload, outer, inner string) string {
	v, ok := p[outer]
	if !ok || v == nil {
		return ""
	}
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	return getString(m, inner)
}

// getNestedBool reads p[outer][inner] as a bool.
func getNestedBool(p Payload, outer, inner string) (bool, bool) {
	v, ok := p[outer]
	if !ok || v == nil {
		return false, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return false, false
	}
	b, ok := m[inner].(bool)
	return b, ok
}

// getFloat reads a numeric field, accepting a JSON number or a numeric
// string (several of these providers return scores as strings).
func getFloat(p Payload, key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// getBool reads a boolean field.
func getBool(p Payload, key string) (bool, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// getInt reads an integer-valued field via getFloat, accepting a JSON
// number or a numeric string; a fractional value is truncated.
func getInt(p Payload, key string) (int, bool) {
	f, ok := getFloat(p, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}
