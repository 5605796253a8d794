// Package query evaluates boolean combinators over the key sets maintained
// by the index engine. Expressions are plain trees built with Eq, And, Or,
// Not, and Difference; evaluation walks the tree bottom-up and resolves each
// leaf against the store inside the caller's transaction.
package query

import "fmt"

// Expr is a node in a query expression tree.
type Expr interface {
	// String renders the expression for logs and error messages.
	String() string
	exprNode()
}

type eqExpr struct {
	index string
	key   []byte
}

type andExpr struct{ operands []Expr }

type orExpr struct{ operands []Expr }

type notExpr struct{ operand Expr }

type diffExpr struct{ left, right Expr }

// Eq matches records whose index entry for the named index equals key.
func Eq(indexName string, key []byte) Expr {
	return &eqExpr{index: indexName, key: key}
}

// And matches records present in every operand.
func And(operands ...Expr) Expr {
	return &andExpr{operands: operands}
}

// Or matches records present in any operand.
func Or(operands ...Expr) Expr {
	return &orExpr{operands: operands}
}

// Not matches records absent from the operand, relative to the table's full
// set of primary keys.
func Not(operand Expr) Expr {
	return &notExpr{operand: operand}
}

// Difference matches records present in left but not in right.
func Difference(left, right Expr) Expr {
	return &diffExpr{left: left, right: right}
}

func (e *eqExpr) String() string {
	return fmt.Sprintf("%s=%q", e.index, e.key)
}

func (e *andExpr) String() string { return joinOperands("AND", e.operands) }

func (e *orExpr) String() string { return joinOperands("OR", e.operands) }

func (e *notExpr) String() string {
	return fmt.Sprintf("NOT(%s)", e.operand)
}

func (e *diffExpr) String() string {
	return fmt.Sprintf("(%s DIFF %s)", e.left, e.right)
}

func joinOperands(op string, operands []Expr) string {
	out := "("
	for i, o := range operands {
		if i > 0 {
			out += " " + op + " "
		}
		out += o.String()
	}
	return out + ")"
}

func (e *eqExpr) exprNode()   {}
func (e *andExpr) exprNode()  {}
func (e *orExpr) exprNode()   {}
func (e *notExpr) exprNode()  {}
func (e *diffExpr) exprNode() {}
