/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package panel

import "strings"

// Judge looks up a judge by name.
func (p *Plan) Judge(name string) (JudgeSpec, bool) {
	for _, j := range p.Judges {
		if j.Name == name {
			return j, true
		}
	}
	return JudgeSpec{}, false
}

// WithPersonas returns a copy of the plan whose judge list is the plan's own
// judges followed by the given persona judges.
func (p Plan) WithPersonas(personas []JudgeSpec) Plan {
	judges := make([]JudgeSpec, 0, len(p.Judges)+len(personas))
	judges = append(judges, p.Judges...)
	judges = append(judges, personas...)
	p.Judges = judges
	return p
}

// BrowserJudges splits the judge list by whether a live page must be inspected.
func (p *Plan) BrowserJudges() (browser, text []JudgeSpec) {
	for _, j := range p.Judges {
		if j.NeedsBrowser {
			browser = append(browser, j)
		} else {
			text = append(text, j)
		}
	}
	return browser, text
}

// Slug makes a project name safe for use as a file name: every character
// outside [A-Za-z0-9] becomes '_'.
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
