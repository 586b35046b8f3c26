package validator

import (
	"strings"

	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// scalarFunction describes a builtin. resolve receives the argument types
// and returns the result type, or false when no signature matches.
type scalarFunction struct {
	resolve func(args []expr.Type) (expr.Type, bool)
}

var scalarFunctions = map[string]scalarFunction{
	"trim":     {resolve: fixedSignature(expr.TypeString, expr.TypeString)},
	"ltrim":    {resolve: fixedSignature(expr.TypeString, expr.TypeString)},
	"rtrim":    {resolve: fixedSignature(expr.TypeString, expr.TypeString)},
	"upper":    {resolve: fixedSignature(expr.TypeString, expr.TypeString)},
	"lower":    {resolve: fixedSignature(expr.TypeString, expr.TypeString)},
	"length":   {resolve: fixedSignature(expr.TypeInt, expr.TypeString)},
	"concat":   {resolve: resolveConcat},
	"abs":      {resolve: resolveAbs},
	"round":    {resolve: resolveRound},
	"coalesce": {resolve: resolveCoalesce},
}

func fixedSignature(result expr.Type, params ...expr.Type) func([]expr.Type) (expr.Type, bool) {
	return func(args []expr.Type) (expr.Type, bool) {
		if len(args) != len(params) {
			return expr.TypeInvalid, false
		}
		for i, arg := range args {
			if arg != params[i] && arg != expr.TypeNull {
				return expr.TypeInvalid, false
			}
		}
		return result, true
	}
}

func resolveConcat(args []expr.Type) (expr.Type, bool) {
	if len(args) == 0 {
		return expr.TypeInvalid, false
	}
	for _, arg := range args {
		if arg != expr.TypeString && arg != expr.TypeNull {
			return expr.TypeInvalid, false
		}
	}
	return expr.TypeString, true
}

func resolveAbs(args []expr.Type) (expr.Type, bool) {
	if len(args) != 1 || !numericOrNull(args[0]) {
		return expr.TypeInvalid, false
	}
	if args[0] == expr.TypeNull {
		return expr.TypeDouble, true
	}
	return args[0], true
}

func resolveRound(args []expr.Type) (expr.Type, bool) {
	if len(args) < 1 || len(args) > 2 || !numericOrNull(args[0]) {
		return expr.TypeInvalid, false
	}
	if len(args) == 2 && !args[1].IsInteger() && args[1] != expr.TypeNull {
		return expr.TypeInvalid, false
	}
	return expr.TypeDouble, true
}

func resolveCoalesce(args []expr.Type) (expr.Type, bool) {
	if len(args) == 0 {
		return expr.TypeInvalid, false
	}
	result := args[0]
	for _, arg := range args[1:] {
		common, ok := expr.CommonType(result, arg)
		if !ok {
			return expr.TypeInvalid, false
		}
		result = common
	}
	return result, true
}

func (a *statementAnalyzer) buildFunction(f int, call *parser.FunctionCallExpr) (expr.TypedExpr, error) {
	name := strings.ToLower(call.Name)
	fn, ok := scalarFunctions[name]
	if !ok {
		return nil, errorf(UnknownFunction, "unknown function: %s", call.Name)
	}
	if call.Star || call.Distinct {
		return nil, errorf(WrongArgumentType, "%s is not an aggregate function: %s", name, parser.FormatExpression(call))
	}
	args := make([]expr.TypedExpr, len(call.Args))
	types := make([]expr.Type, len(call.Args))
	for i, arg := range call.Args {
		built, err := a.buildExpression(f, arg)
		if err != nil {
			return nil, err
		}
		args[i] = built
		types[i] = built.ResultType()
	}
	result, ok := fn.resolve(types)
	if !ok {
		names := make([]string, len(types))
		for i, typ := range types {
			names[i] = typ.String()
		}
		return nil, errorf(WrongArgumentType, "No matching function with signature: %s(%s).", name, strings.Join(names, ", "))
	}
	return expr.NewFunction(name, args, result), nil
}
