/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor

import (
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
)

// retryable reports whether a Messages API failure is worth another attempt:
// rate limiting and any 5xx, including Anthropic's 529 overloaded.
func retryable(err error) bool {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
}
