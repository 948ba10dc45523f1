package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"
)

type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeInteger ParameterType = "integer"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
)

type ParameterSpec struct {
	Name        string
	Description string
	Type        ParameterType
	Enum        []string
	Required    bool
}

type ToolHandler func(ctx context.Context, args map[string]any) (string, error)

// ToolSpec describes a function the model may call. Handler is only used by
// Client.Send; Client.Decide returns the arguments to the caller instead.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  []ParameterSpec
	Handler     ToolHandler
}

func (t ToolSpec) Schema() map[string]any {
	properties := make(map[string]any, len(t.Parameters))
	required := make([]string, 0, len(t.Parameters))
	for _, p := range t.Parameters {
		property := map[string]any{
			"type": string(p.typeOrDefault()),
		}
		if p.Description != "" {
			property["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			property["enum"] = p.Enum
		}
		properties[p.Name] = property
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func (t ToolSpec) param() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.Schema()),
		},
	}
}

// Arguments parses the raw JSON arguments of a tool call against the declared
// parameters. Unknown keys are passed through untouched.
func (t ToolSpec) Arguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("arguments are not valid JSON: %s", raw)
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("arguments are not a JSON object: %s", raw)
	}
	fields := parsed.Map()
	payload := make(map[string]any, len(fields))
	declared := make(map[string]struct{}, len(t.Parameters))
	for _, p := range t.Parameters {
		declared[p.Name] = struct{}{}
		value, ok := fields[p.Name]
		if !ok || value.Type == gjson.Null {
			if p.Required {
				return nil, fmt.Errorf("missing required argument: %s", p.Name)
			}
			payload[p.Name] = nil
			continue
		}
		converted, err := p.convert(value)
		if err != nil {
			return nil, err
		}
		payload[p.Name] = converted
	}
	for key, value := range fields {
		if _, ok := declared[key]; !ok {
			payload[key] = value.Value()
		}
	}
	return payload, nil
}

func (t ToolSpec) extract(completion *openai.ChatCompletion) (map[string]any, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}
	for _, call := range completion.Choices[0].Message.ToolCalls {
		if call.Function.Name != t.Name {
			continue
		}
		return t.Arguments(call.Function.Arguments)
	}
	return nil, fmt.Errorf("the reply did not call %s", t.Name)
}

func (p ParameterSpec) typeOrDefault() ParameterType {
	if p.Type == "" {
		return TypeString
	}
	return p.Type
}

func (p ParameterSpec) convert(value gjson.Result) (any, error) {
	switch p.typeOrDefault() {
	case TypeInteger:
		if value.Type != gjson.Number {
			return nil, fmt.Errorf("argument %s must be an integer", p.Name)
		}
		return int(value.Int()), nil
	case TypeNumber:
		if value.Type != gjson.Number {
			return nil, fmt.Errorf("argument %s must be a number", p.Name)
		}
		return value.Float(), nil
	case TypeBoolean:
		switch {
		case value.Type == gjson.True, value.Type == gjson.False:
			return value.Bool(), nil
		case value.Type == gjson.String && (strings.EqualFold(value.Str, "true") || strings.EqualFold(value.Str, "false")):
			return strings.EqualFold(value.Str, "true"), nil
		}
		return nil, fmt.Errorf("argument %s must be a boolean", p.Name)
	default:
		text := strings.TrimSpace(value.String())
		if len(p.Enum) == 0 {
			return text, nil
		}
		for _, candidate := range p.Enum {
			if strings.EqualFold(candidate, text) {
				return candidate, nil
			}
		}
		return nil, fmt.Errorf("argument %s must be one of [%s], got %q", p.Name, strings.Join(p.Enum, ", "), text)
	}
}

func StringArg(args map[string]any, name string) string {
	if value, ok := args[name].(string); ok {
		return value
	}
	return ""
}
