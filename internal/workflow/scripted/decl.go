package scripted

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
)

type (
	definitionFile struct {
		Workflows []workflowDecl `yaml:"workflows"`
	}

	workflowDecl struct {
		Name     string         `yaml:"name"`
		ID       string         `yaml:"id"`
		Version  int            `yaml:"version"`
		Params   []string       `yaml:"params"`
		Defaults map[string]any `yaml:"defaults"`
		Steps    []stepDecl     `yaml:"steps"`
	}

	stepDecl struct {
		Name     string `yaml:"name"`
		Language string `yaml:"language"`
		Code     string `yaml:"code"`
		Persist  bool   `yaml:"persist"`
	}
)

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		data, err := json.Marshal(v)
		return string(data), err
	},
}

func loadYAMLFile(path string) ([]workflowDecl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripted: read %s: %w", path, err)
	}
	decls, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("scripted: %s: %w", path, err)
	}
	return decls, nil
}

func parseYAML(data []byte) ([]workflowDecl, error) {
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(file.Workflows) == 0 {
		return nil, fmt.Errorf("no workflows declared")
	}
	return file.Workflows, nil
}

// buildUnit validates the declarations of one file and turns them into marked
// callables.
func buildUnit(name string, decls []workflowDecl) (workflow.Unit, error) {
	unit := workflow.Unit{Name: name}
	for i, decl := range decls {
		decl.Name = strings.TrimSpace(decl.Name)
		if decl.Name == "" {
			return workflow.Unit{}, fmt.Errorf("workflow[%d]: name is required", i)
		}
		if len(decl.Steps) == 0 {
			return workflow.Unit{}, fmt.Errorf("workflow %s: at least one step is required", decl.Name)
		}
		fn, err := compile(decl)
		if err != nil {
			return workflow.Unit{}, err
		}
		unit.Callables = append(unit.Callables, workflow.Mark(decl.Name, fn,
			workflow.WithID(strings.TrimSpace(decl.ID)),
			workflow.WithParams(decl.Params...),
			workflow.WithDefaults(decl.Defaults),
			workflow.WithVersion(decl.Version),
		))
	}
	return unit, nil
}
