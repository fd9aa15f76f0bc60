// Package filterexpr compiles CEL filter expressions and evaluates them
// against in-memory records, for list endpoints that accept a raw filter
// string (e.g. `level == 3 && frequency_rank < 1000`).
package filterexpr

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// FieldKind declares the CEL type of a filterable field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindBool
)

// Schema whitelists the fields a filter expression may reference.
type Schema map[string]FieldKind

// Filter is a compiled, reusable filter program.
type Filter struct {
	program cel.Program
}

// Compile parses and type-checks the expression against the schema. An empty
// expression compiles to a match-all filter.
func Compile(expr string, schema Schema) (*Filter, error) {
	if expr == "" {
		return &Filter{}, nil
	}

	opts := make([]cel.EnvOption, 0, len(schema))
	for name, kind := range schema {
		switch kind {
		case KindInt:
			opts = append(opts, cel.Variable(name, cel.IntType))
		case KindBool:
			opts = append(opts, cel.Variable(name, cel.BoolType))
		default:
			opts = append(opts, cel.Variable(name, cel.StringType))
		}
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create filter env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile filter: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter must evaluate to bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("plan filter: %w", err)
	}
	return &Filter{program: program}, nil
}

// Matches evaluates the filter against one record's field values.
func (f *Filter) Matches(fields map[string]any) (bool, error) {
	if f.program == nil {
		return true, nil
	}
	out, _, err := f.program.Eval(fields)
	if err != nil {
		return false, fmt.Errorf("eval filter: %w", err)
	}
	matched, err := asBool(out)
	if err != nil {
		return false, err
	}
	return matched, nil
}

func asBool(val ref.Val) (bool, error) {
	if types.IsError(val) {
		return false, fmt.Errorf("filter evaluation error: %v", val)
	}
	b, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter result is %T, not bool", val.Value())
	}
	return b, nil
}
