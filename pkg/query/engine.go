package query

import (
	"errors"
	"fmt"

	"github.com/norndb/norn/pkg/index"
	"github.com/norndb/norn/pkg/store"
)

// ErrMissingIndexKey is returned by NOT evaluation under PolicyError when
// the negated index key has no entry at all.
var ErrMissingIndexKey = errors.New("index key not present in index")

// Policy picks the result of NOT over an index key that is entirely absent
// from the index. It is fixed per engine, not per query.
type Policy int

const (
	// PolicyEmpty resolves NOT over an absent key to the empty set.
	PolicyEmpty Policy = iota
	// PolicyAll resolves NOT over an absent key to every primary key in
	// the table.
	PolicyAll
	// PolicyError fails NOT over an absent key with ErrMissingIndexKey.
	PolicyError
)

func (p Policy) String() string {
	switch p {
	case PolicyEmpty:
		return "empty"
	case PolicyAll:
		return "all"
	case PolicyError:
		return "error"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Predicate is an arbitrary per-record filter. Predicates run against
// decoded records after set evaluation has narrowed the candidates, never
// against the whole table.
type Predicate func(record interface{}) (bool, error)

// Engine evaluates expressions against one table's indexes.
type Engine struct {
	idx       *index.Engine
	recPrefix []byte
	policy    Policy
}

// NewEngine creates an engine over the given index engine. recordPrefix is
// the store prefix under which the table's records live; it bounds the
// universe used by NOT.
func NewEngine(idx *index.Engine, recordPrefix []byte, policy Policy) *Engine {
	return &Engine{idx: idx, recPrefix: recordPrefix, policy: policy}
}

// Policy returns the engine's missing-key policy for NOT.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Evaluate resolves the expression to the set of matching primary keys.
// Operands of AND/OR may be evaluated in any order; the result is the same
// either way.
func (e *Engine) Evaluate(txn store.Txn, expr Expr) (index.KeySet, error) {
	set, _, err := e.eval(txn, expr)
	return set, err
}

// EvaluateFiltered resolves the expression and then keeps only the records
// accepted by every predicate. load decodes the record behind a primary key.
func (e *Engine) EvaluateFiltered(
	txn store.Txn,
	expr Expr,
	load func(primaryKey []byte) (interface{}, error),
	predicates ...Predicate,
) (index.KeySet, error) {
	candidates, err := e.Evaluate(txn, expr)
	if err != nil {
		return nil, err
	}
	if len(predicates) == 0 {
		return candidates, nil
	}

	out := make(index.KeySet)
	for _, pk := range candidates.Keys() {
		record, err := load(pk)
		if err != nil {
			return nil, fmt.Errorf("load record %q: %w", pk, err)
		}
		keep := true
		for _, pred := range predicates {
			ok, err := pred(record)
			if err != nil {
				return nil, fmt.Errorf("predicate on record %q: %w", pk, err)
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			out[string(pk)] = struct{}{}
		}
	}
	return out, nil
}

// eval returns the expression's key set plus whether every Eq leaf in the
// subtree found its index entry. The flag feeds the NOT missing-key policy.
func (e *Engine) eval(txn store.Txn, expr Expr) (index.KeySet, bool, error) {
	switch node := expr.(type) {
	case *eqExpr:
		set, ok, err := e.idx.Lookup(txn, node.index, node.key)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return make(index.KeySet), false, nil
		}
		return set, true, nil

	case *andExpr:
		if len(node.operands) == 0 {
			return nil, false, fmt.Errorf("AND requires at least one operand")
		}
		result, present, err := e.eval(txn, node.operands[0])
		if err != nil {
			return nil, false, err
		}
		for _, operand := range node.operands[1:] {
			set, p, err := e.eval(txn, operand)
			if err != nil {
				return nil, false, err
			}
			result = result.Intersect(set)
			present = present && p
		}
		return result, present, nil

	case *orExpr:
		if len(node.operands) == 0 {
			return nil, false, fmt.Errorf("OR requires at least one operand")
		}
		result := make(index.KeySet)
		present := true
		for _, operand := range node.operands {
			set, p, err := e.eval(txn, operand)
			if err != nil {
				return nil, false, err
			}
			result = result.Union(set)
			present = present && p
		}
		return result, present, nil

	case *notExpr:
		set, present, err := e.eval(txn, node.operand)
		if err != nil {
			return nil, false, err
		}
		if !present {
			switch e.policy {
			case PolicyEmpty:
				return make(index.KeySet), true, nil
			case PolicyAll:
				universe, err := e.universe(txn)
				return universe, true, err
			case PolicyError:
				return nil, false, fmt.Errorf("NOT(%s): %w", node.operand, ErrMissingIndexKey)
			default:
				return nil, false, fmt.Errorf("unknown missing-key policy %s", e.policy)
			}
		}
		universe, err := e.universe(txn)
		if err != nil {
			return nil, false, err
		}
		return universe.Difference(set), true, nil

	case *diffExpr:
		left, leftPresent, err := e.eval(txn, node.left)
		if err != nil {
			return nil, false, err
		}
		right, _, err := e.eval(txn, node.right)
		if err != nil {
			return nil, false, err
		}
		return left.Difference(right), leftPresent, nil

	default:
		return nil, false, fmt.Errorf("unknown expression node %T", expr)
	}
}

// universe scans the table's record prefix and collects every primary key.
func (e *Engine) universe(txn store.Txn) (index.KeySet, error) {
	universe := make(index.KeySet)
	err := txn.Scan(e.recPrefix, func(key, value []byte) error {
		universe[string(key[len(e.recPrefix):])] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan table universe: %w", err)
	}
	return universe, nil
}
