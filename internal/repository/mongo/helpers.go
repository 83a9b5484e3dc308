package mongo

import "reflect"

// isNilPointer reports whether v is a nil pointer stored in an interface.
func isNilPointer(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
