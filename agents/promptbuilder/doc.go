/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder builds prompts from templates with {{name}}
placeholders, in the spirit of prepared SQL statements.

Templates must be string constants. Runtime data reaches a prompt only
through a binding that encodes it:

	var judgePrompt = promptbuilder.MustNewPrompt(`
	<pitch>
	{{pitch}}
	</pitch>

	Scores so far:
	{{scores}}`)

	p, err := judgePrompt.BindText("pitch", project.Pitch)
	if err != nil {
		return err
	}
	p, err = p.BindJSON("scores", scores)
	if err != nil {
		return err
	}
	text, err := p.Build()

BindText escapes markup characters, BindJSON, BindXML and BindYAML marshal
their argument, and BindStringLiteral accepts only constants. Every binding
method returns a new Prompt, so package-level templates are safe to share
between goroutines. Placeholders are substituted in a single pass: a bound
value that itself contains {{name}} is left as is.

Request types implement [Bindable] to bind their own fields.
*/
package promptbuilder
