// Package filter translates AIP-160 filter expressions over characters into
// SQL WHERE fragments.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// CharacterDeclarations returns the fields a character list may filter on.
func CharacterDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("regime", filtering.TypeString),
		filtering.DeclareIdent("faction", filtering.TypeString),
		filtering.DeclareIdent("group", filtering.TypeString),
		filtering.DeclareIdent("arete", filtering.TypeInt),
		filtering.DeclareIdent("experience_total", filtering.TypeInt),
		filtering.DeclareIdent("create_time", filtering.TypeTimestamp),
		filtering.DeclareIdent("update_time", filtering.TypeTimestamp),
	)
}

// SQLCondition is a WHERE fragment with its positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition matches everything.
func (c SQLCondition) Empty() bool {
	return c.Clause == ""
}

// fieldMapping maps filter fields to characters table columns.
var fieldMapping = map[string]string{
	"name":             "name",
	"regime":           "regime",
	"faction":          "faction",
	"group":            "group_name",
	"arete":            "arete",
	"experience_total": "experience_total",
	"create_time":      "created_at",
	"update_time":      "updated_at",
}

// ParseCharacterFilter parses filterStr. An empty filter yields an empty
// condition.
func ParseCharacterFilter(filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := CharacterDeclarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}

	return translateExpr(filter.CheckedExpr.Expr)
}

func translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case filtering.FunctionAnd:
		return translateJunction(call.Args, "AND")
	case filtering.FunctionOr:
		return translateJunction(call.Args, "OR")
	case filtering.FunctionNot:
		return translateNot(call.Args)
	case filtering.FunctionHas:
		return translateHas(call.Args)
	case filtering.FunctionEquals:
		return translateComparison(call.Args, "=")
	case filtering.FunctionNotEquals:
		return translateComparison(call.Args, "!=")
	case filtering.FunctionLessThan:
		return translateComparison(call.Args, "<")
	case filtering.FunctionLessEquals:
		return translateComparison(call.Args, "<=")
	case filtering.FunctionGreaterThan:
		return translateComparison(call.Args, ">")
	case filtering.FunctionGreaterEquals:
		return translateComparison(call.Args, ">=")
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateJunction(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}

	left, err := translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func translateNot(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 1 {
		return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
	}
	inner, err := translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{Clause: fmt.Sprintf("NOT %s", inner.Clause), Params: inner.Params}, nil
}

// translateHas maps `field:"text"` to a case-insensitive substring match.
func translateHas(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("has requires 2 arguments")
	}
	column, err := column(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	text, ok := value.(string)
	if !ok {
		return SQLCondition{}, fmt.Errorf("has requires a string value")
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(text))
	return SQLCondition{
		Clause: fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, column),
		Params: []any{"%" + escaped + "%"},
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	column, err := column(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func column(e *expr.Expr) (string, error) {
	field, err := extractFieldName(e)
	if err != nil {
		return "", err
	}
	column, ok := fieldMapping[field]
	if !ok {
		return "", fmt.Errorf("unknown field: %s", field)
	}
	return column, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == filtering.FunctionTimestamp && len(kind.CallExpr.Args) == 1 {
			return extractTimestampMillis(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

// extractTimestampMillis returns Unix milliseconds, the unit the store
// writes timestamps in.
func extractTimestampMillis(e *expr.Expr) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("nil timestamp argument")
	}

	kind, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	str, ok := kind.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, str.StringValue)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", str.StringValue)
	}
	return t.UTC().UnixMilli(), nil
}
