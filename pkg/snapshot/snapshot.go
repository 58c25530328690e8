// Package snapshot reads scheduling problems and what-if scenarios from YAML
// or JSON files.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/recurrence"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/simulation"
)

// ProblemFile is the on-disk form of a problem. DemandPatterns are expanded
// over the context date range and appended to Demands.
type ProblemFile struct {
	model.SchedulingProblem `yaml:",inline"`
	DemandPatterns          []recurrence.DemandPattern `yaml:"demandPatterns,omitempty"`
}

// LoadProblem reads, expands and validates a problem file
func LoadProblem(path string) (*model.SchedulingProblem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file: %w", err)
	}
	return ParseProblem(data)
}

// ParseProblem decodes a problem document. JSON is accepted as YAML.
func ParseProblem(data []byte) (*model.SchedulingProblem, error) {
	var file ProblemFile
	if err := decodeStrict(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse problem: %w", err)
	}

	problem := file.SchedulingProblem
	if err := ApplyPatterns(&problem, file.DemandPatterns); err != nil {
		return nil, err
	}
	return &problem, nil
}

// ApplyPatterns expands patterns over the problem's date range, appends the
// demands and revalidates the problem. Expanded ids must not collide with
// existing demands.
func ApplyPatterns(problem *model.SchedulingProblem, patterns []recurrence.DemandPattern) error {
	if len(patterns) > 0 {
		demands, err := recurrence.Expand(patterns, problem.Context.DateRange)
		if err != nil {
			return fmt.Errorf("failed to expand demand patterns: %w", err)
		}
		problem.Demands = append(problem.Demands, demands...)
	}

	if err := checkUniqueIDs(problem); err != nil {
		return err
	}
	if err := problem.Validate(); err != nil {
		return fmt.Errorf("failed to validate problem: %w", err)
	}
	return nil
}

// LoadScenario reads and validates a what-if scenario file
func LoadScenario(path string) (simulation.WhatIfScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return simulation.WhatIfScenario{}, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario document
func ParseScenario(data []byte) (simulation.WhatIfScenario, error) {
	var scenario simulation.WhatIfScenario
	if err := decodeStrict(data, &scenario); err != nil {
		return simulation.WhatIfScenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return simulation.WhatIfScenario{}, fmt.Errorf("failed to validate scenario: %w", err)
	}
	return scenario, nil
}

// decodeStrict rejects unknown keys so typos in hand-written files surface
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("document is empty")
		}
		return err
	}
	return nil
}

func checkUniqueIDs(p *model.SchedulingProblem) error {
	seen := make(map[string]bool, len(p.Demands))
	for _, d := range p.Demands {
		if seen[d.ID] {
			return &model.ValidationError{Entity: "demand", ID: d.ID, Field: "id", Message: "is duplicated"}
		}
		seen[d.ID] = true
	}
	seen = make(map[string]bool, len(p.Employees))
	for _, e := range p.Employees {
		if seen[e.ID] {
			return &model.ValidationError{Entity: "employee", ID: e.ID, Field: "id", Message: "is duplicated"}
		}
		seen[e.ID] = true
	}
	return nil
}
