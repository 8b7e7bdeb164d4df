/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response carries nothing that looks like a
// JSON object.
var ErrNoJSON = errors.New("no JSON object in response")

// ExtractJSON pulls the body of the first ```json fenced block out of a
// response. Without such a block it strips any surrounding fence and returns
// the trimmed text.
func ExtractJSON(responseText string) string {
	lines := strings.Split(responseText, "\n")
	var buf bytes.Buffer
	inBlock, found := false, false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inBlock && trimmed == "```json" {
			inBlock, found = true, true
			continue
		}
		if inBlock && trimmed == "```" {
			break
		}
		if inBlock {
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(line)
		}
	}
	if found {
		return strings.TrimSpace(buf.String())
	}

	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	return strings.TrimSpace(responseText)
}

// FirstObject returns the span from the first '{' to the last '}' of text.
// Models often wrap their answer in prose; the greedy span survives that as
// long as the prose itself holds no braces after the object.
func FirstObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// AfterMarker splits text at the first occurrence of marker. The part before
// the marker is returned trimmed, along with the first JSON object after it.
// Without the marker the whole text is searched for an object and before is
// empty.
func AfterMarker(text, marker string) (before, object string, err error) {
	rest := text
	if i := strings.Index(text, marker); i >= 0 {
		before = strings.TrimSpace(text[:i])
		rest = text[i+len(marker):]
	}
	object, err = FirstObject(rest)
	return before, object, err
}

// Extract extracts JSON content from a text response and unmarshals it into
// the provided type. Fenced blocks are preferred; otherwise the outermost
// object in the text is used.
func Extract[T any](responseText string) (T, error) {
	var out T

	content := ExtractJSON(responseText)
	if !strings.HasPrefix(content, "{") && !strings.HasPrefix(content, "[") {
		obj, err := FirstObject(content)
		if err != nil {
			return out, err
		}
		content = obj
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return out, fmt.Errorf("unmarshal response: %w", err)
	}
	return out, nil
}
