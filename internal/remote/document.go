package remote

// Field accessors with zero-value defaults. Remote payloads arrive as
// map[string]any with numbers decoded as float64 after a JSON round trip, so
// every numeric accessor accepts both wire and in-process representations.

// String returns the string field or "".
func (d *Document) String(key string) string {
	s, _ := d.Data[key].(string)
	return s
}

// Bool returns the bool field or false.
func (d *Document) Bool(key string) bool {
	b, _ := d.Data[key].(bool)
	return b
}

// Int64 returns the numeric field as int64 or 0.
func (d *Document) Int64(key string) int64 {
	return toInt64(d.Data[key])
}

// Int returns the numeric field as int or 0.
func (d *Document) Int(key string) int {
	return int(toInt64(d.Data[key]))
}

// Float64 returns the numeric field as float64 or 0.
func (d *Document) Float64(key string) float64 {
	return toFloat64(d.Data[key])
}

// Strings returns the field as a list of strings, skipping non-string items.
func (d *Document) Strings(key string) []string {
	switch v := d.Data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Maps returns the field as a list of nested objects.
func (d *Document) Maps(key string) []map[string]any {
	switch v := d.Data[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	default:
		return 0
	}
}
