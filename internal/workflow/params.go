package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"dario.cat/mergo"
)

// String returns a required string parameter.
func (p Params) String(name string) (string, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParam, name, v)
	}
	return s, nil
}

// StringOr returns the string parameter or def when absent or not a string.
func (p Params) StringOr(name, def string) string {
	if s, err := p.String(name); err == nil {
		return s
	}
	return def
}

// Bool reads a flag, accepting booleans and their string spellings.
func (p Params) Bool(name string) bool {
	switch v := p[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Strings reads a list of strings. A comma separated string is split.
func (p Params) Strings(name string) ([]string, error) {
	switch v := p[name].(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), v...), nil
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a string, got %T",
					ErrInvalidParam, name, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list of strings, got %T",
			ErrInvalidParam, name, v)
	}
}

// bind layers the caller's params over the definition defaults. Caller
// values always win, including zero values; nested maps are merged.
func (d Definition) bind(params Params) (Params, error) {
	merged := cloneParams(d.Defaults)
	if merged == nil {
		merged = Params{}
	}
	if len(params) == 0 {
		return merged, nil
	}
	err := mergo.Merge(&merged, cloneParams(params),
		mergo.WithOverride, mergo.WithOverwriteWithEmptyValue)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: merge parameters: %w", d.ID, err)
	}
	return merged, nil
}

func cloneParams(p Params) Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(cloneParams(t))
	case Params:
		return cloneParams(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
