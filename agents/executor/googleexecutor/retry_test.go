/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"errors"
	"testing"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", errors.New("Error 429, Message: Resource has been exhausted"), true},
		{"503", errors.New("Error 503, Message: The service is currently unavailable"), true},
		{"500", errors.New("Error 500, Message: oops"), true},
		{"status name", errors.New("googleapi: RESOURCE_EXHAUSTED"), true},
		{"quota", errors.New("Quota exceeded for project"), true},
		{"overloaded", errors.New("model is overloaded, try again"), true},
		{"400", errors.New("Error 400, Message: invalid argument"), false},
		{"permission", errors.New("Error 403, Message: permission denied"), false},
		{"not found", errors.New("model not found"), false},
		{"number in text", errors.New("project 15290 not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, wanted = %v", tt.err, got, tt.want)
			}
		})
	}
}
