/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"regexp"
	"strconv"
	"strings"
)

// statusCode finds an HTTP status in a Vertex error message, which is how
// the genai client surfaces it ("Error 429, Message: ...").
var statusCode = regexp.MustCompile(`\b(429|5\d\d)\b`)

// transientMarkers are phrases Vertex uses for quota and capacity failures.
var transientMarkers = []string{
	"resource exhausted",
	"resource_exhausted",
	"rate limit",
	"quota exceeded",
	"overloaded",
	"unavailable",
	"internal error",
	"server error",
}

// retryable reports whether a generate call failed for a quota or capacity
// reason rather than a problem with the request.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if m := statusCode.FindString(msg); m != "" {
		if code, convErr := strconv.Atoi(m); convErr == nil && (code == 429 || code >= 500) {
			return true
		}
	}
	lower := strings.ToLower(msg)
	for _, marker := range transientMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
