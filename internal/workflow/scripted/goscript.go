package scripted

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

const goDefinitionsFunc = "WorkflowDefinitions"

// loadGoFile interprets path and converts what WorkflowDefinitions returns
// into declarations by way of YAML, so both file kinds share one schema.
func loadGoFile(path string) ([]workflowDecl, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripted: read %s: %w", path, err)
	}
	if strings.TrimSpace(string(code)) == "" {
		return nil, fmt.Errorf("scripted: %s is empty", path)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("scripted: %s: load stdlib: %w", path, err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("scripted: interpret %s: %w", path, err)
	}
	fn, err := i.Eval(goDefinitionsFunc)
	if err != nil {
		return nil, fmt.Errorf("scripted: %s must define %s() []map[string]any: %w",
			path, goDefinitionsFunc, err)
	}
	raw, err := callDefinitions(fn)
	if err != nil {
		return nil, fmt.Errorf("scripted: %s: %w", path, err)
	}

	payload, err := yaml.Marshal(map[string]any{"workflows": raw})
	if err != nil {
		return nil, fmt.Errorf("scripted: %s: %w", path, err)
	}
	decls, err := parseYAML(payload)
	if err != nil {
		return nil, fmt.Errorf("scripted: %s: %w", path, err)
	}
	return decls, nil
}

func callDefinitions(fn reflect.Value) ([]map[string]any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goDefinitionsFunc)
	}
	if fn.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%s must take no arguments", goDefinitionsFunc)
	}
	out := fn.Call(nil)
	if len(out) != 1 {
		return nil, fmt.Errorf("%s must return []map[string]any", goDefinitionsFunc)
	}
	if defs, ok := out[0].Interface().([]map[string]any); ok {
		return defs, nil
	}
	v := out[0]
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return []map[string]any", goDefinitionsFunc)
	}
	defs := make([]map[string]any, v.Len())
	for idx := range v.Len() {
		m, ok := v.Index(idx).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not map[string]any", goDefinitionsFunc, idx)
		}
		defs[idx] = m
	}
	return defs, nil
}
