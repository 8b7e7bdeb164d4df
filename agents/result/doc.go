/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package result provides utilities for extracting and parsing JSON responses from AI models.

Model output rarely arrives as bare JSON. It is wrapped in markdown fences,
preceded by commentary, or split around a marker such as "---JSON---" when a
prompt asks for prose and data in one reply. The helpers here cover each case:

	// Fenced or bare JSON, decoded into a type.
	plan, err := result.Extract[panel.Plan](response)

	// Greedy span from the first '{' to the last '}'.
	obj, err := result.FirstObject(response)

	// Markdown report followed by a marker and a JSON summary.
	report, summary, err := result.AfterMarker(response, "---JSON---")

FirstObject and AfterMarker return ErrNoJSON when no object can be found.
All functions are pure and safe for concurrent use.
*/
package result
