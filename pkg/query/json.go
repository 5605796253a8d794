package query

import (
	"encoding/json"
	"fmt"
)

// jsonExpr is the wire form of an expression, one operator per object:
//
//	{"eq": {"index": "color", "key": "red"}}
//	{"and": [ ... ]}
//	{"or": [ ... ]}
//	{"not": { ... }}
//	{"diff": [left, right]}
type jsonExpr struct {
	Eq   *jsonEq    `json:"eq,omitempty"`
	And  []jsonExpr `json:"and,omitempty"`
	Or   []jsonExpr `json:"or,omitempty"`
	Not  *jsonExpr  `json:"not,omitempty"`
	Diff []jsonExpr `json:"diff,omitempty"`
}

type jsonEq struct {
	Index string `json:"index"`
	Key   string `json:"key"`
}

// ParseJSON decodes an expression from its JSON wire form.
func ParseJSON(data []byte) (Expr, error) {
	var node jsonExpr
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return node.toExpr()
}

func (n *jsonExpr) toExpr() (Expr, error) {
	set := 0
	for _, present := range []bool{n.Eq != nil, n.And != nil, n.Or != nil, n.Not != nil, n.Diff != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("parse query: each node needs exactly one of eq, and, or, not, diff")
	}

	switch {
	case n.Eq != nil:
		if n.Eq.Index == "" {
			return nil, fmt.Errorf("parse query: eq requires an index name")
		}
		return Eq(n.Eq.Index, []byte(n.Eq.Key)), nil

	case n.And != nil:
		operands, err := toExprs(n.And)
		if err != nil {
			return nil, err
		}
		return And(operands...), nil

	case n.Or != nil:
		operands, err := toExprs(n.Or)
		if err != nil {
			return nil, err
		}
		return Or(operands...), nil

	case n.Not != nil:
		operand, err := n.Not.toExpr()
		if err != nil {
			return nil, err
		}
		return Not(operand), nil

	default:
		if len(n.Diff) != 2 {
			return nil, fmt.Errorf("parse query: diff requires exactly two operands, got %d", len(n.Diff))
		}
		left, err := n.Diff[0].toExpr()
		if err != nil {
			return nil, err
		}
		right, err := n.Diff[1].toExpr()
		if err != nil {
			return nil, err
		}
		return Difference(left, right), nil
	}
}

func toExprs(nodes []jsonExpr) ([]Expr, error) {
	out := make([]Expr, len(nodes))
	for i := range nodes {
		expr, err := nodes[i].toExpr()
		if err != nil {
			return nil, err
		}
		out[i] = expr
	}
	return out, nil
}
