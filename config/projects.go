/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"chainguard.dev/evalpanel/panel"
	"gopkg.in/yaml.v3"
)

// ProjectSource is either a path to a projects file or an inline list.
type ProjectSource struct {
	Path   string
	Inline []panel.Project
}

// UnmarshalYAML accepts a scalar path or a sequence of projects.
func (ps *ProjectSource) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&ps.Path)
	case yaml.SequenceNode:
		return node.Decode(&ps.Inline)
	default:
		return fmt.Errorf("line %d: projects must be a path or a list", node.Line)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (ps ProjectSource) MarshalYAML() (any, error) {
	if ps.Path != "" {
		return ps.Path, nil
	}
	return ps.Inline, nil
}

// LoadProjects returns the projects of the file, reading them from disk when
// the file names a path.
func (f *File) LoadProjects() ([]panel.Project, error) {
	projects := f.Projects.Inline
	if f.Projects.Path != "" {
		var err error
		if projects, err = ReadProjects(f.Projects.Path); err != nil {
			return nil, err
		}
	}
	if err := validateProjects(projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ReadProjects reads a projects file. Files ending in .json hold an array of
// projects or a single project; .yaml and .yml files hold a list; anything
// else is CSV with a header row naming the name, url, idea and pitch columns.
func ReadProjects(path string) ([]panel.Project, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONProjects(b)
	case ".yaml", ".yml":
		var projects []panel.Project
		if err := yaml.Unmarshal(b, &projects); err != nil {
			return nil, fmt.Errorf("projects %s: %w", path, err)
		}
		return projects, nil
	default:
		return ParseCSV(strings.NewReader(string(b)))
	}
}

func parseJSONProjects(b []byte) ([]panel.Project, error) {
	var projects []panel.Project
	if err := json.Unmarshal(b, &projects); err == nil {
		return projects, nil
	}
	var one panel.Project
	if err := json.Unmarshal(b, &one); err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}
	return []panel.Project{one}, nil
}

// ParseCSV reads projects from CSV with a header row. Unknown columns are
// ignored; cells are trimmed.
func ParseCSV(r io.Reader) ([]panel.Project, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("projects: empty CSV")
	}
	if err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, errors.New("projects: CSV header has no name column")
	}
	cell := func(rec []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var projects []panel.Project
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return projects, nil
		}
		if err != nil {
			return nil, fmt.Errorf("projects: %w", err)
		}
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		projects = append(projects, panel.Project{
			Name:  cell(rec, "name"),
			URL:   cell(rec, "url"),
			Idea:  cell(rec, "idea"),
			Pitch: cell(rec, "pitch"),
		})
	}
}

func validateProjects(projects []panel.Project) error {
	if len(projects) == 0 {
		return errors.New("projects: no projects")
	}
	seen := make(map[string]struct{}, len(projects))
	for i := range projects {
		if err := projects[i].Validate(); err != nil {
			return fmt.Errorf("projects[%d]: %w", i, err)
		}
		if _, dup := seen[projects[i].Name]; dup {
			return fmt.Errorf("projects: duplicate project name %q", projects[i].Name)
		}
		seen[projects[i].Name] = struct{}{}
	}
	return nil
}

// LoadContext reads the scenario document.
func (f *File) LoadContext() (string, error) {
	b, err := os.ReadFile(f.Context)
	if err != nil {
		return "", fmt.Errorf("context: %w", err)
	}
	return string(b), nil
}
