package lang

import (
	"reflect"
)

// resultTypeName returns the Go type name of value for log records.
func resultTypeName(value any) string {
	if value == nil {
		return "nil"
	}

	return reflect.TypeOf(value).String()
}
