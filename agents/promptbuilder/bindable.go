/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Bindable is implemented by agent requests that fill a prompt template from
// their own fields.
type Bindable interface {
	// Bind returns a new prompt with the receiver's values bound.
	Bind(prompt *Prompt) (*Prompt, error)
}

// Noop is a Bindable that returns the prompt unchanged.
type Noop struct{}

// Bind implements Bindable.
func (Noop) Bind(prompt *Prompt) (*Prompt, error) {
	return prompt, nil
}

// BuildFor binds b into prompt and renders it.
func BuildFor(prompt *Prompt, b Bindable) (string, error) {
	bound, err := b.Bind(prompt)
	if err != nil {
		return "", err
	}
	return bound.Build()
}
