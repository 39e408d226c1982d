package enum

import (
	"fmt"
	"reflect"
	"sort"
)

var enumManager = map[reflect.Type]any{}

type enum[T comparable] struct {
	toEnum map[string]T
}

// New registers a value as a member of the enum type T and returns it
// unchanged, so it can be used directly in a var declaration.
func New[T comparable](value T) T {
	t := reflect.TypeOf(value)
	if _, ok := enumManager[t]; !ok {
		enumManager[t] = enum[T]{toEnum: make(map[string]T)}
	}

	enumManager[t].(enum[T]).toEnum[fmt.Sprintf("%v", value)] = value
	return value
}

// ToEnum converts a string to a registered member of T. It fails on
// values which were never registered with New.
func ToEnum[T comparable](s string) (T, error) {
	var defaultT T
	e, ok := enumManager[reflect.TypeOf(defaultT)]
	if !ok {
		return defaultT, fmt.Errorf("not found enum type %T", defaultT)
	}

	t, ok := e.(enum[T]).toEnum[s]
	if !ok {
		return defaultT, fmt.Errorf("not found value %s in enum %T", s, defaultT)
	}

	return t, nil
}

// ToList returns all registered members of T in a stable order.
func ToList[T comparable]() []T {
	var defaultT T
	e, ok := enumManager[reflect.TypeOf(defaultT)]
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(e.(enum[T]).toEnum))
	for k := range e.(enum[T]).toEnum {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]T, 0, len(keys))
	for _, k := range keys {
		result = append(result, e.(enum[T]).toEnum[k])
	}

	return result
}
