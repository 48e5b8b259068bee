package filter

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/ppiankov/fundus/internal/model"
)

// Expression compiles a CEL boolean expression into a filter. The record's
// present fields are bound to the map variable r, e.g.
//
//	"text" in r && size(r["text"]) > 20
//
// Compilation failures and non-bool expressions are configuration errors.
// An expression that fails at evaluation time, or yields a dynamic non-bool
// value, rejects the record.
func Expression(name, expr string) (Filter, error) {
	if expr == "" {
		return nil, &model.ConfigurationError{Option: "filters.expressions", Reason: "empty expression"}
	}

	env, err := cel.NewEnv(
		cel.Variable("r", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, &model.ConfigurationError{Option: "filters.expressions", Reason: fmt.Sprintf("compile %q: %v", expr, issues.Err())}
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, &model.ConfigurationError{Option: "filters.expressions", Reason: fmt.Sprintf("%q yields %s, not bool", expr, out)}
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, &model.ConfigurationError{Option: "filters.expressions", Reason: fmt.Sprintf("program %q: %v", expr, err)}
	}

	if name == "" {
		name = expr
	}
	return New(name, func(r model.Record) bool {
		out, _, err := prg.Eval(map[string]any{"r": r.ToMap()})
		if err != nil {
			return false
		}
		ok, isBool := out.Value().(bool)
		return isBool && ok
	}), nil
}
