package dialog

// Fields holds the validated values collected by a dialog, keyed by step field.
type Fields map[string]any

// Get returns the value of key converted to T.
func Get[T any](f Fields, key string) (T, bool) {
	v, ok := f[key].(T)
	return v, ok
}

// String returns a string field or "".
func (f Fields) String(key string) string {
	s, _ := Get[string](f, key)
	return s
}

// Int64 returns an int64 field or 0.
func (f Fields) Int64(key string) int64 {
	n, _ := Get[int64](f, key)
	return n
}
