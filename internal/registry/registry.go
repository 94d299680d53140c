// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package registry is the single source of truth for the CS800 parameter
// catalog: the mapping of parameter name to wire ID, wire type, and
// default value. It is the versioning point of the wire format (spec
// section 6) and is loaded once at process start from an embedded YAML
// document rather than a hand-maintained Go map, the way
// dswarbrick-smart's drivedb tooling loads its drive database.
package registry

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v2"
)

//go:embed parameters.yaml
var parametersYAML []byte

// WireType describes how a parameter's 16-bit wire value should be
// interpreted. The registry is the source of truth for this (see the
// "duck-typed parameter values" redesign note): the codec and memory
// layers never infer a parameter's type from its value.
type WireType int

const (
	// Plain is an unadorned 16-bit integer: elapsed minutes, run-time,
	// ramp rate, alarm codes, controller numbers.
	Plain WireType = iota
	// Temperature is stored on the wire as round(K*100), clipped to
	// [0, 65535].
	Temperature
	// Percentage is a 0-100 heater-drive style value.
	Percentage
	// Enum is a symbolic value stored as its integer index.
	Enum
)

func (t WireType) String() string {
	switch t {
	case Temperature:
		return "temperature"
	case Percentage:
		return "percentage"
	case Enum:
		return "enum"
	default:
		return "plain"
	}
}

// Parameter describes one entry in the CS800 parameter catalog.
type Parameter struct {
	Name     string
	ID       uint16
	Type     WireType
	Default  uint16
	Constant bool // immune to Controller Memory's simulation tick
}

type yamlParameter struct {
	Name     string `yaml:"name"`
	ID       uint16 `yaml:"id"`
	Type     string `yaml:"type"`
	Default  uint16 `yaml:"default"`
	Constant bool   `yaml:"constant"`
}

type yamlDocument struct {
	Parameters []yamlParameter `yaml:"parameters"`
	// Order lists the default status-format order: the canonical
	// parameter sequence a status packet encodes, unless a listener asks
	// for a different SETSTATUSFORMAT id.
	Order []string `yaml:"order"`
}

// Registry is the immutable, process-wide parameter catalog.
type Registry struct {
	byName map[string]Parameter
	byID   map[uint16]Parameter
	order  []string
}

// Load parses the embedded parameter catalog. It panics on malformed
// embedded data, which would be a build-time defect, not a runtime one.
func Load() *Registry {
	r, err := parse(parametersYAML)
	if err != nil {
		panic(fmt.Sprintf("registry: embedded catalog is invalid: %v", err))
	}
	return r
}

func parse(data []byte) (*Registry, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing parameter catalog: %w", err)
	}

	r := &Registry{
		byName: make(map[string]Parameter, len(doc.Parameters)),
		byID:   make(map[uint16]Parameter, len(doc.Parameters)),
		order:  doc.Order,
	}
	for _, p := range doc.Parameters {
		wt, err := parseWireType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		param := Parameter{
			Name:     p.Name,
			ID:       p.ID,
			Type:     wt,
			Default:  p.Default,
			Constant: p.Constant,
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter name %q", p.Name)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate parameter id %d (%q)", p.ID, p.Name)
		}
		r.byName[p.Name] = param
		r.byID[p.ID] = param
	}
	for _, name := range doc.Order {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("status order references unknown parameter %q", name)
		}
	}
	return r, nil
}

func parseWireType(s string) (WireType, error) {
	switch s {
	case "", "plain":
		return Plain, nil
	case "temperature":
		return Temperature, nil
	case "percentage":
		return Percentage, nil
	case "enum":
		return Enum, nil
	default:
		return Plain, fmt.Errorf("unknown wire type %q", s)
	}
}

// ByName looks up a parameter by name.
func (r *Registry) ByName(name string) (Parameter, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// ByID looks up a parameter by its wire ID.
func (r *Registry) ByID(id uint16) (Parameter, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Names returns every parameter name in canonical status order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every Parameter, in canonical status order.
func (r *Registry) All() []Parameter {
	out := make([]Parameter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
