package calculator

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/chatmodel"
	"github.com/effective-security/mcpagent/pkg/llmutils"
	"github.com/effective-security/mcpagent/schema"
	"github.com/effective-security/mcpagent/tools"
)

const ToolName = "calculate"

// CalcRequest represents the tool input.
type CalcRequest struct {
	Operation string  `json:"operation" yaml:"operation" jsonschema:"title=operation,description=The operation to perform: add\\, subtract\\, multiply\\, divide."`
	A         float64 `json:"a" yaml:"a" jsonschema:"title=a,description=The first number."`
	B         float64 `json:"b" yaml:"b" jsonschema:"title=b,description=The second number."`
}

// Tool performs basic arithmetic on two numbers.
type Tool struct {
	name        string
	description string
	funcParams  any
}

var _ tools.Tool[CalcRequest, chatmodel.String] = (*Tool)(nil)

func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(CalcRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Performs a calculation on two numbers. Supported operations: add, subtract, multiply, divide.",
		funcParams:  sc.Parameters,
	}
	return tool, nil
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

var symbols = map[string]string{
	"add":      "+",
	"subtract": "-",
	"multiply": "*",
	"divide":   "/",
}

func (t *Tool) Run(_ context.Context, req *CalcRequest) (*chatmodel.String, error) {
	symbol, ok := symbols[req.Operation]
	if !ok {
		return chatmodel.NewString(fmt.Sprintf("Error: Unknown operation '%s'", req.Operation)), nil
	}
	if req.Operation == "divide" && req.B == 0 {
		return chatmodel.NewString("Error: Division by zero"), nil
	}

	var result float64
	switch req.Operation {
	case "add":
		result = req.A + req.B
	case "subtract":
		result = req.A - req.B
	case "multiply":
		result = req.A * req.B
	case "divide":
		result = req.A / req.B
	}

	out := fmt.Sprintf("Result: %s %s %s = %s",
		formatNumber(req.A), symbol, formatNumber(req.B), formatNumber(result))
	return chatmodel.NewString(out), nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req CalcRequest
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(chatmodel.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
