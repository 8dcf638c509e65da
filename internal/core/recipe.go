package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// RecipeStep is one operation of a recipe.
type RecipeStep struct {
	Column     string `yaml:"column" json:"column"`
	Op         OpKind `yaml:"op" json:"op"`
	Delimiter  string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	Expression string `yaml:"expression,omitempty" json:"expression,omitempty"`
}

// Operation returns the step as an operation descriptor.
func (s RecipeStep) Operation() Operation {
	return Operation{Kind: s.Op, Delimiter: s.Delimiter, Expression: s.Expression}
}

// Recipe is an ordered list of steps applied all-or-nothing.
//
//	name: clean emails
//	steps:
//	  - column: email
//	    op: removeSpaces
//	  - column: email
//	    op: splitByChar
//	    delimiter: "@"
type Recipe struct {
	Name  string       `yaml:"name,omitempty" json:"name,omitempty"`
	Steps []RecipeStep `yaml:"steps" json:"steps"`
}

// ParseRecipe decodes a recipe from YAML. Either the mapping form above or a
// bare list of steps is accepted. Op names are resolved with ParseOpKind.
func ParseRecipe(data []byte) (*Recipe, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidRecipe)
	}

	var r Recipe
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&r.Steps); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
		}
	case yaml.MappingNode:
		if err := root.Decode(&r); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
		}
	default:
		return nil, fmt.Errorf("%w: expected a mapping or a list of steps", ErrInvalidRecipe)
	}

	if err := r.normalize(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadRecipe reads and parses a recipe.
func LoadRecipe(rd io.Reader) (*Recipe, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	return ParseRecipe(data)
}

// YAML encodes the recipe in the mapping form.
func (r *Recipe) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Recipe) normalize() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidRecipe)
	}

	var errs []error
	for i := range r.Steps {
		step := &r.Steps[i]
		step.Column = strings.TrimSpace(step.Column)
		if step.Column == "" {
			errs = append(errs, fmt.Errorf("step %d: column is required", i+1))
		}
		kind, err := ParseOpKind(string(step.Op))
		if err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
			continue
		}
		step.Op = kind
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecipe, errors.Join(errs...))
	}
	return nil
}

// ApplyRecipe runs every step in order. If any step fails the error names
// the step and no partial result is returned.
func ApplyRecipe(t *Table, r *Recipe) (*Table, error) {
	cur := t
	for i, step := range r.Steps {
		next, err := Apply(cur, step.Column, step.Operation())
		if err != nil {
			return nil, fmt.Errorf("step %d (%s on %q): %w", i+1, step.Op.Label(), step.Column, err)
		}
		cur = next
	}
	return cur, nil
}
