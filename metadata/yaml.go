// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the static configuration form of a set of handlers.
//
//	actions:
//	  - class: app.direct.Test
//	    service: test.service
//	    methods:
//	      - name: methodA
//	        params:
//	          - { name: request, kind: transport }
//	          - { name: a, constraints: required }
//	      - name: methodB
//	        static: true
type Config struct {
	Actions []ActionConfig `yaml:"actions"`
}

// ActionConfig configures one handler class.
type ActionConfig struct {
	Class   string         `yaml:"class"`
	Service string         `yaml:"service,omitempty"`
	Methods []MethodConfig `yaml:"methods"`
}

// MethodConfig configures one handler method.
type MethodConfig struct {
	Name   string        `yaml:"name"`
	Static bool          `yaml:"static,omitempty"`
	Params []ParamConfig `yaml:"params,omitempty"`
}

// ParamConfig configures one method parameter.
type ParamConfig struct {
	Name        string        `yaml:"name"`
	Kind        ParameterKind `yaml:"kind,omitempty"`
	Constraints string        `yaml:"constraints,omitempty"`
}

// Build converts the configuration into action metadata.
func (c *Config) Build() ([]*ActionMetadata, error) {
	actions := make([]*ActionMetadata, 0, len(c.Actions))
	for _, ac := range c.Actions {
		methods := make([]*MethodMetadata, 0, len(ac.Methods))
		for _, mc := range ac.Methods {
			params := make([]ParameterMetadata, 0, len(mc.Params))
			for _, pc := range mc.Params {
				params = append(params, ParameterMetadata{
					Name:        pc.Name,
					Kind:        pc.Kind,
					Constraints: pc.Constraints,
				})
			}
			methods = append(methods, NewMethod(mc.Name, mc.Static, params...))
		}
		a, err := NewAction(ac.Class, methods, WithServiceID(ac.Service))
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// ParseConfig decodes a YAML (or JSON) metadata document.
// Unknown fields are rejected.
func ParseConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	return &cfg, nil
}

// LoadYAML reads a metadata document and registers every action in it.
func (r *Registry) LoadYAML(rd io.Reader) error {
	cfg, err := ParseConfig(rd)
	if err != nil {
		return err
	}
	actions, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	for _, a := range actions {
		if err := r.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile is LoadYAML for a file on disk.
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open metadata file %s: %w", path, err)
	}
	defer f.Close()

	if err := r.LoadYAML(f); err != nil {
		return fmt.Errorf("failed to load metadata from %s: %w", path, err)
	}
	return nil
}
