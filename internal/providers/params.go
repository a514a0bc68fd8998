package providers

import (
	"fmt"
	"strings"

	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
)

// Params wraps a parameter bag with typed accessors. Numbers may arrive as
// float64 (JSON), int or int64.
type Params map[string]any

func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Require returns the string under key or a MissingParameter error when it is empty.
func (p Params) Require(key string) (string, error) {
	s := p.String(key, "")
	if s == "" {
		return "", service.NewError(service.MissingParameter, "Missing required parameter: %s", key)
	}
	return s, nil
}

// RequireAll checks that every key is present and non-empty.
func (p Params) RequireAll(keys ...string) error {
	for _, k := range keys {
		if !p.present(k) {
			return service.NewError(service.MissingParameter, "Missing required parameters: %s", strings.Join(keys, ", "))
		}
	}
	return nil
}

func (p Params) present(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	return true
}

func (p Params) Bool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1" || v == "yes"
	}
	return def
}

func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, service.NewError(service.InvalidParameter, "Invalid parameter %s: expected a number, got %v", key, v)
}

func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, service.NewError(service.InvalidParameter, "Invalid parameter %s: expected a number, got %v", key, v)
}

// Strings accepts a list or a comma separated string.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return nil
}

func (p Params) Map(key string) map[string]any {
	if m, ok := p[key].(map[string]any); ok {
		return m
	}
	return nil
}

// Region reads an [x, y, width, height] list.
func (p Params) Region(key string, def []int) ([]int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	items, ok := v.([]any)
	if !ok {
		if ints, isInts := v.([]int); isInts {
			items = make([]any, len(ints))
			for i, n := range ints {
				items[i] = n
			}
		}
	}
	if len(items) != 4 {
		return nil, service.NewError(service.InvalidParameter, "Invalid region parameter: must be [x, y, width, height]")
	}
	region := make([]int, 4)
	for i, item := range items {
		n, err := Params{"v": item}.Int("v", 0)
		if err != nil {
			return nil, service.NewError(service.InvalidParameter, "Invalid region parameter: must be [x, y, width, height]")
		}
		region[i] = n
	}
	return region, nil
}
