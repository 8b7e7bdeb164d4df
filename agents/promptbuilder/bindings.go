/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// binding renders the value substituted for one placeholder.
type binding interface {
	value() (string, error)
}

// unbound marks a placeholder that still needs a value.
type unbound string

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", string(u))
}

// literal is developer-provided text, substituted as is.
type literal string

func (l literal) value() (string, error) { return string(l), nil }

// markupEscaper escapes markup but keeps line breaks, so multi-line pitches
// and scenario text stay readable inside their tags.
var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// text is runtime text such as a project pitch or a judge bio.
type text string

func (t text) value() (string, error) { return markupEscaper.Replace(string(t)), nil }

// encoded is structured data rendered by one of the supported encoders.
type encoded struct {
	format string
	data   any
}

func (e encoded) value() (string, error) {
	var (
		b   []byte
		err error
	)
	switch e.format {
	case "JSON":
		b, err = json.MarshalIndent(e.data, "", "  ")
	case "XML":
		b, err = xml.MarshalIndent(e.data, "", "  ")
	case "YAML":
		b, err = yaml.Marshal(e.data)
	default:
		return "", fmt.Errorf("unknown encoding %q", e.format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", e.format, err)
	}
	return string(b), nil
}

// existsAndUnbound reports an error unless name is a placeholder of the
// template that has not been bound yet.
func existsAndUnbound(bindings map[string]binding, name string) error {
	b, ok := bindings[name]
	if !ok {
		return fmt.Errorf("binding %q not found in template", name)
	}
	if _, isUnbound := b.(unbound); !isUnbound {
		return fmt.Errorf("binding %q already bound", name)
	}
	return nil
}
