package cli

import (
	"encoding/json"
	"strings"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ParseParams turns key=value pairs into action parameters. Values that parse
// as JSON keep their JSON type, anything else is a string. paramsJSON, when
// set, is decoded first and the pairs override it.
func ParseParams(pairs []string, paramsJSON string) (map[string]any, error) {
	params := map[string]any{}
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
			return nil, errors.Wrap(err, "invalid --params-json")
		}
	}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("invalid parameter %q, expected key=value", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}

// LoadWorkflow reads a workflow definition from a YAML (or JSON) file.
func LoadWorkflow(fs afero.Fs, path string) (models.WorkflowDefinition, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return models.WorkflowDefinition{}, errors.Wrapf(err, "failed to read workflow file %s", path)
	}
	var def models.WorkflowDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return models.WorkflowDefinition{}, errors.Wrapf(err, "failed to parse workflow file %s", path)
	}
	if len(def.Steps) == 0 {
		return models.WorkflowDefinition{}, errors.Errorf("workflow file %s has no steps", path)
	}
	if err := validator.New().Struct(def); err != nil {
		return models.WorkflowDefinition{}, errors.Wrapf(err, "invalid workflow file %s", path)
	}
	return def, nil
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("param", "p", nil, "action parameter as key=value (repeatable)")
	cmd.Flags().String("params-json", "", "action parameters as a JSON object")
	cmd.Flags().Bool("confirm", false, "confirm a risky action")
}

func requestFromFlags(cmd *cobra.Command, target, action string) (models.AutomationRequest, error) {
	pairs, _ := cmd.Flags().GetStringArray("param")
	raw, _ := cmd.Flags().GetString("params-json")
	confirm, _ := cmd.Flags().GetBool("confirm")
	params, err := ParseParams(pairs, raw)
	if err != nil {
		return models.AutomationRequest{}, err
	}
	return models.AutomationRequest{Target: target, Action: action, Parameters: params, ConfirmRisky: confirm}, nil
}
