package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/avarest/internal/util"
)

// Document is the YAML form of a service description.
type Document struct {
	Groups []GroupSpec `yaml:"groups"`
}

// GroupSpec declares one method group.
type GroupSpec struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Methods     []MethodSpec `yaml:"methods"`
}

// MethodSpec declares one method.
type MethodSpec struct {
	Name        string                  `yaml:"name"`
	Action      string                  `yaml:"action"`
	Path        string                  `yaml:"path"`
	Description string                  `yaml:"description,omitempty"`
	Target      string                  `yaml:"target,omitempty"`
	Request     string                  `yaml:"request,omitempty"`
	Response    string                  `yaml:"response,omitempty"`
	Arguments   map[string]ArgumentYAML `yaml:"arguments,omitempty"`
}

// ArgumentYAML declares the type, pattern and description of an argument.
type ArgumentYAML struct {
	Type        string `yaml:"type,omitempty"`
	Pattern     string `yaml:"pattern,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// LoadDocument reads and parses a service description file.
func LoadDocument(path string) ([]MethodGroup, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read service description %s: %w", path, err)
	}
	return ParseDocument(bytes.NewReader(data))
}

// ParseDocument parses a YAML service description into method groups.
// Unknown fields are rejected. Any invalid method fails the whole document
// with a *util.ConfigurationError.
func ParseDocument(r io.Reader) ([]MethodGroup, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, util.NewConfigurationErrorWithCause("", "failed to parse service description", err)
	}

	return doc.Build()
}

// Build compiles the document into method groups.
func (d *Document) Build() ([]MethodGroup, error) {
	groups := make([]MethodGroup, 0, len(d.Groups))
	for i, gs := range d.Groups {
		group := MethodGroup{Name: gs.Name, Description: gs.Description}
		for j, ms := range gs.Methods {
			m, err := ms.Build()
			if err != nil {
				field := fmt.Sprintf("groups[%d].methods[%d]", i, j)
				return nil, util.NewConfigurationErrorWithCause(field, "invalid method", err)
			}
			group.Methods = append(group.Methods, m)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// Build compiles a single method declaration.
func (s *MethodSpec) Build() (*Method, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("method name is required")
	}

	args := make(map[string]ArgumentSpec, len(s.Arguments))
	for name, a := range s.Arguments {
		vt, err := ParseValueType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		args[name] = ArgumentSpec{Type: vt, Pattern: a.Pattern, Description: a.Description}
	}

	signature, err := ParseSignature(s.Path, args)
	if err != nil {
		return nil, err
	}

	opts := []MethodOption{WithDescription(s.Description)}
	if s.Target != "" {
		opts = append(opts, WithTarget(s.Target))
	}
	if s.Request != "" {
		t, err := ParseEntityType(s.Request)
		if err != nil {
			return nil, fmt.Errorf("request type: %w", err)
		}
		opts = append(opts, WithRequestType(t))
	}
	if s.Response != "" {
		t, err := ParseEntityType(s.Response)
		if err != nil {
			return nil, fmt.Errorf("response type: %w", err)
		}
		opts = append(opts, WithResponseType(t))
	}

	return NewMethod(s.Action, s.Name, signature, opts...)
}

// Methods flattens groups into registration order.
func Methods(groups []MethodGroup) []*Method {
	var methods []*Method
	for _, g := range groups {
		methods = append(methods, g.Methods...)
	}
	return methods
}
