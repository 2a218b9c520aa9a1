package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	//go:embed schema/unit.schema.json
	unitSchemaJSON string

	//go:embed schema/taskspecs.schema.json
	taskSpecsSchemaJSON string
)

const (
	unitSchemaURL      = "https://tasktree.local/schema/unit.schema.json"
	taskSpecsSchemaURL = "https://tasktree.local/schema/taskspecs.schema.json"
)

var schemas = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	sources := map[string]string{
		unitSchemaURL:      unitSchemaJSON,
		taskSpecsSchemaURL: taskSpecsSchemaJSON,
	}

	for url, src := range sources {
		err := compiler.AddResource(url, strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("add schema %s: %w", url, err)
		}
	}

	compiled := make(map[string]*jsonschema.Schema, len(sources))

	for url := range sources {
		sch, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", url, err)
		}

		compiled[url] = sch
	}

	return compiled, nil
})

// validateDocument decodes data and validates it against the schema at url.
// Schema violations are returned as problems; other failures as errors.
func validateDocument(url string, data []byte) ([]string, error) {
	all, err := schemas()
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any

	err = dec.Decode(&doc)
	if err != nil {
		return []string{"invalid JSON: " + err.Error()}, nil
	}

	err = all[url].Validate(doc)
	if err == nil {
		return nil, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validate: %w", err)
	}

	return flattenValidation(verr), nil
}

// flattenValidation collects the leaf causes of a validation error as
// "<instance location>: <message>" lines.
func flattenValidation(root *jsonschema.ValidationError) []string {
	var problems []string

	stack := []*jsonschema.ValidationError{root}

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}

			problems = append(problems, loc+": "+e.Message)

			continue
		}

		stack = append(stack, e.Causes...)
	}

	sort.Strings(problems)

	return problems
}

// ParseTaskSpecs validates data against the add-many input schema and decodes
// it. The input is a JSON array of task specs, each with optional subtasks.
func ParseTaskSpecs(data []byte) ([]TaskSpec, error) {
	problems, err := validateDocument(taskSpecsSchemaURL, data)
	if err != nil {
		return nil, err
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSchema, strings.Join(problems, "; "))
	}

	var specs []TaskSpec

	err = json.Unmarshal(data, &specs)
	if err != nil {
		return nil, fmt.Errorf("decode task specs: %w", err)
	}

	return specs, nil
}

// ValidateUnit checks raw unit file content against the unit schema.
func ValidateUnit(data []byte) ([]string, error) {
	return validateDocument(unitSchemaURL, data)
}
