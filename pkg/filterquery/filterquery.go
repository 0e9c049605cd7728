// Package filterquery parses the free-form filter expressions accepted by
// list endpoints (the `q` query parameter) and translates them into
// parameterized SQL fragments.
//
// The grammar is a flat conjunction of comparisons:
//
//	source = "AFDB" and length >= 200 and has_structure = true
//
// Column identifiers never come from the expression directly: each field
// name is resolved through a fixed allow-list supplied by the caller, and
// all values are emitted as bound parameters.
package filterquery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// ErrInvalidFilter wraps every parse and translation failure caused by the
// expression itself, so handlers can map it to a caller error instead of a
// server failure.
var ErrInvalidFilter = errors.New("invalid filter expression")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFilter, fmt.Sprintf(format, args...))
}

// FieldKind describes the value type a filterable field accepts.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBool
)

// Field describes one entry in a caller-supplied allow-list, mapping a
// public field name to an internal column reference.
type Field struct {
	Column string
	Kind   FieldKind
}

// Expr is a conjunction of comparison clauses.
type Expr struct {
	First *Clause   `parser:"@@"`
	Rest  []*Clause `parser:"( 'and' @@ )*"`
}

// Clause is a single field/operator/value comparison.
type Clause struct {
	Field string `parser:"@Ident"`
	Op    string `parser:"@( '<' '=' | '>' '=' | '!' '=' | '=' | '<' | '>' | 'contains' )"`
	Value *Value `parser:"@@"`
}

// Value is a literal operand.
type Value struct {
	Str  *string  `parser:"  @String"`
	Num  *float64 `parser:"| @Float | @Int"`
	Bool *string  `parser:"| @( 'true' | 'false' )"`
}

var parser = participle.MustBuild[Expr](
	participle.Unquote("String"),
)

// Parse parses a filter expression. An empty input yields a nil expression.
func Parse(input string) (*Expr, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	expr, err := parser.ParseString("", input)
	if err != nil {
		return nil, invalidf("parse filter expression: %v", err)
	}
	return expr, nil
}

// Clauses returns all clauses of the expression in order.
func (e *Expr) Clauses() []*Clause {
	if e == nil {
		return nil
	}
	out := []*Clause{e.First}
	return append(out, e.Rest...)
}

// Translate converts the expression into a SQL condition string with bound
// parameters, resolving field names through the allow-list. Unknown fields,
// type mismatches, and operators not applicable to the field type are
// rejected.
func (e *Expr) Translate(fields map[string]Field) (string, []any, error) {
	clauses := e.Clauses()
	if len(clauses) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(clauses))
	args := make([]any, 0, len(clauses))
	for _, c := range clauses {
		field, ok := fields[c.Field]
		if !ok {
			return "", nil, invalidf("unknown filter field %q", c.Field)
		}

		switch c.Op {
		case "=", "!=", "<", "<=", ">", ">=":
			val, err := c.Value.coerce(field.Kind)
			if err != nil {
				return "", nil, invalidf("field %q: %v", c.Field, err)
			}
			if field.Kind == KindBool && c.Op != "=" && c.Op != "!=" {
				return "", nil, invalidf("field %q: operator %q not applicable to booleans", c.Field, c.Op)
			}
			op := c.Op
			if op == "!=" {
				op = "<>"
			}
			conds = append(conds, fmt.Sprintf("%s %s ?", field.Column, op))
			args = append(args, val)
		case "contains":
			if field.Kind != KindString {
				return "", nil, invalidf("field %q: contains requires a string field", c.Field)
			}
			if c.Value.Str == nil {
				return "", nil, invalidf("field %q: contains requires a string value", c.Field)
			}
			conds = append(conds, fmt.Sprintf("%s LIKE ?", field.Column))
			args = append(args, "%"+*c.Value.Str+"%")
		default:
			return "", nil, invalidf("unsupported operator %q", c.Op)
		}
	}

	return strings.Join(conds, " AND "), args, nil
}

func (v *Value) coerce(kind FieldKind) (any, error) {
	switch kind {
	case KindString:
		if v.Str == nil {
			return nil, fmt.Errorf("expected a quoted string value")
		}
		return *v.Str, nil
	case KindNumber:
		if v.Num == nil {
			return nil, fmt.Errorf("expected a numeric value")
		}
		return *v.Num, nil
	case KindBool:
		if v.Bool == nil {
			return nil, fmt.Errorf("expected true or false")
		}
		return *v.Bool == "true", nil
	}
	return nil, fmt.Errorf("unknown field kind")
}
