package service

import (
	"fmt"
	"strings"
)

var riskyKeywords = []string{"delete", "remove", "clear", "send", "email", "mail", "post", "publish", "share", "execute"}

var riskyFileKeywords = []string{"delete", "move", "rename"}

// ClassifyRisk decides whether an action needs explicit confirmation before it
// runs and returns the prompt to show. Target and action are compared
// case-insensitively. The target-specific rules are checked before the
// generic keyword rule so their prompt names what is affected.
func ClassifyRisk(action, target string, parameters map[string]any) (bool, string) {
	a := strings.ToLower(action)
	t := strings.ToLower(target)

	switch {
	case t == "email" && (a == "send" || a == "compose"):
		return true, fmt.Sprintf("This will send an email to %s. Are you sure you want to proceed?",
			paramText(parameters, "to", "recipients"))
	case t == "files" && containsAny(a, riskyFileKeywords):
		return true, fmt.Sprintf("This will modify files in %s. Are you sure you want to proceed?",
			paramText(parameters, "directory", "your filesystem"))
	case t == "system" && a == "run_command":
		return true, fmt.Sprintf("This will execute a system command: %s. Are you sure you want to proceed?",
			paramText(parameters, "command", ""))
	case containsAny(a, riskyKeywords):
		return true, fmt.Sprintf("This action (%s) might perform sensitive operations. Are you sure you want to proceed?", action)
	}
	return false, ""
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func paramText(parameters map[string]any, key, fallback string) string {
	v, ok := parameters[key]
	if !ok || v == nil {
		return fallback
	}
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}
