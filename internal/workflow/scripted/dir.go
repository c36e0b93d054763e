// Package scripted loads workflow definitions from files so operators can
// add workflows without rebuilding the service.
//
// A directory is a namespace and every *.yaml, *.yml or *.go file in it is
// one unit named after the file. The file base.* is skipped like the base
// unit of any other namespace. YAML files look like:
//
//	workflows:
//	  - name: summary
//	    id: reports.summary   # optional
//	    params: [data_url]
//	    defaults: {limit: 10}
//	    steps:
//	      - name: load
//	        language: python
//	        persist: true
//	        code: |
//	          df = pd.read_csv({{ json .data_url }})
//
// Go files are run with an interpreter and must define
// WorkflowDefinitions() []map[string]any returning the same shape.
package scripted

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
)

// Dir is a Namespace backed by a directory of definition files.
type Dir struct {
	path   string
	logger workflow.Logger
}

var _ workflow.Namespace = (*Dir)(nil)

// NewDir returns a namespace reading definitions from path. Files that fail
// to load are reported to logger and skipped.
func NewDir(path string, logger workflow.Logger) *Dir {
	return &Dir{path: strings.TrimSpace(path), logger: logger}
}

// Name returns the directory path.
func (d *Dir) Name() string {
	return d.path
}

// Units loads every definition file. A directory that cannot be read is an
// error; a single broken file is not.
func (d *Dir) Units(ctx context.Context) ([]workflow.Unit, error) {
	if d.path == "" {
		return nil, fmt.Errorf("scripted: no directory configured")
	}
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("scripted: read %s: %w", d.path, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var units []workflow.Unit
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		name, loader := d.loaderFor(entry.Name())
		if loader == nil {
			continue
		}
		path := filepath.Join(d.path, entry.Name())
		decls, err := loader(path)
		if err != nil {
			if d.logger != nil {
				d.logger.Warn("Skipping workflow file", "path", path, "error", err)
			}
			continue
		}
		unit, err := buildUnit(name, decls)
		if err != nil {
			if d.logger != nil {
				d.logger.Warn("Skipping workflow file", "path", path, "error", err)
			}
			continue
		}
		units = append(units, unit)
	}
	return units, nil
}

func (d *Dir) loaderFor(file string) (string, func(string) ([]workflowDecl, error)) {
	ext := filepath.Ext(file)
	name := strings.TrimSuffix(file, ext)
	switch ext {
	case ".yaml", ".yml":
		return name, loadYAMLFile
	case ".go":
		if strings.HasSuffix(name, "_test") {
			return "", nil
		}
		return name, loadGoFile
	default:
		return "", nil
	}
}
