/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params

import (
	"fmt"
	"maps"
)

// Extract extracts a required parameter from args with type safety.
// Returns an error if the parameter is missing or cannot be converted to T.
func Extract[T any](args map[string]any, name string) (T, error) {
	value, exists := args[name]
	if !exists {
		var zero T
		return zero, fmt.Errorf("%s parameter is required", name)
	}
	return convert[T](name, value)
}

// ExtractOptional extracts an optional parameter with a default value.
// Returns the default if the parameter doesn't exist, or an error if type conversion fails.
func ExtractOptional[T any](args map[string]any, name string, defaultValue T) (T, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return defaultValue, nil
	}
	return convert[T](name, value)
}

func convert[T any](name string, value any) (T, error) {
	if v, ok := value.(T); ok {
		return v, nil
	}
	if v, ok := convertJSON[T](value); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// convertJSON handles the shapes encoding/json produces for untyped values:
// numbers arrive as float64 and arrays as []any.
func convertJSON[T any](value any) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case int:
		if f, ok := value.(float64); ok {
			return any(int(f)).(T), true
		}
	case int32:
		if f, ok := value.(float64); ok {
			return any(int32(f)).(T), true
		}
	case int64:
		if f, ok := value.(float64); ok {
			return any(int64(f)).(T), true
		}
	case float64:
		if i, ok := value.(int); ok {
			return any(float64(i)).(T), true
		}
	case []string:
		items, ok := value.([]any)
		if !ok {
			return zero, false
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return zero, false
			}
			out = append(out, s)
		}
		return any(out).(T), true
	}
	return zero, false
}

// Error creates an error response map.
func Error(format string, args ...any) map[string]any {
	return map[string]any{
		"error": fmt.Sprintf(format, args...),
	}
}

// ErrorWithContext creates an error response with additional context fields.
func ErrorWithContext(err error, context map[string]any) map[string]any {
	response := map[string]any{
		"error": err.Error(),
	}
	maps.Copy(response, context)
	return response
}
