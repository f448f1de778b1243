package render

// str returns the named field as a string, or "" when absent or non-string.
func str(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// num returns the named field as a number.
func num(obj map[string]any, key string) (float64, bool) {
	n, ok := obj[key].(float64)
	return n, ok
}

// firstString walks a fallback chain of keys and returns the first non-empty
// string value.
func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := str(obj, key); s != "" {
			return s
		}
	}
	return ""
}
