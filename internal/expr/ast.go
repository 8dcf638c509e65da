package expr

import "math"

// MaxStringLength caps every string an expression produces.
const MaxStringLength = 1 << 20

// env carries per-evaluation state.
type env struct {
	value string
}

// node is a compiled expression tree element.
type node interface {
	eval(e *env) (Value, error)
	pos() int
}

type literalNode struct {
	at  int
	val Value
}

func (n *literalNode) pos() int { return n.at }

func (n *literalNode) eval(*env) (Value, error) {
	return n.val, nil
}

// valueNode reads the bound cell value.
type valueNode struct{ at int }

func (n *valueNode) pos() int { return n.at }

func (n *valueNode) eval(e *env) (Value, error) {
	return String(e.value), nil
}

type unaryNode struct {
	at      int
	op      string
	operand node
}

func (n *unaryNode) pos() int { return n.at }

func (n *unaryNode) eval(e *env) (Value, error) {
	v, err := n.operand.eval(e)
	if err != nil {
		return nullValue, err
	}
	switch n.op {
	case "!":
		return Bool(!v.Truthy()), nil
	case "-":
		return Number(-v.Number()), nil
	default:
		return Number(v.Number()), nil
	}
}

type binaryNode struct {
	at          int
	op          string
	left, right node
}

func (n *binaryNode) pos() int { return n.at }

func (n *binaryNode) eval(e *env) (Value, error) {
	l, err := n.left.eval(e)
	if err != nil {
		return nullValue, err
	}

	// short-circuit operators return an operand, not a bool
	switch n.op {
	case "&&":
		if !l.Truthy() {
			return l, nil
		}
		return n.right.eval(e)
	case "||":
		if l.Truthy() {
			return l, nil
		}
		return n.right.eval(e)
	}

	r, err := n.right.eval(e)
	if err != nil {
		return nullValue, err
	}

	switch n.op {
	case "+":
		if l.kind == KindString || r.kind == KindString || l.kind == KindArray || r.kind == KindArray {
			s := l.String() + r.String()
			if len(s) > MaxStringLength {
				return nullValue, runtimeErrorf(n.at, "string result exceeds %d bytes", MaxStringLength)
			}
			return String(s), nil
		}
		return Number(l.Number() + r.Number()), nil
	case "-":
		return Number(l.Number() - r.Number()), nil
	case "*":
		return Number(l.Number() * r.Number()), nil
	case "/":
		return Number(l.Number() / r.Number()), nil
	case "%":
		return Number(math.Mod(l.Number(), r.Number())), nil
	case "==":
		return Bool(looseEqual(l, r)), nil
	case "!=":
		return Bool(!looseEqual(l, r)), nil
	case "===":
		return Bool(strictEqual(l, r)), nil
	case "!==":
		return Bool(!strictEqual(l, r)), nil
	case "<", "<=", ">", ">=":
		return Bool(compare(n.op, l, r)), nil
	}
	return nullValue, runtimeErrorf(n.at, "unknown operator %q", n.op)
}

// compare orders two strings lexically and anything else numerically.
// Comparisons involving NaN are false.
func compare(op string, l, r Value) bool {
	if l.kind == KindString && r.kind == KindString {
		switch op {
		case "<":
			return l.str < r.str
		case "<=":
			return l.str <= r.str
		case ">":
			return l.str > r.str
		default:
			return l.str >= r.str
		}
	}
	a, b := l.Number(), r.Number()
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

type conditionalNode struct {
	at                 int
	test, then, orElse node
}

func (n *conditionalNode) pos() int { return n.at }

func (n *conditionalNode) eval(e *env) (Value, error) {
	t, err := n.test.eval(e)
	if err != nil {
		return nullValue, err
	}
	if t.Truthy() {
		return n.then.eval(e)
	}
	return n.orElse.eval(e)
}

// propertyNode reads the length property.
type propertyNode struct {
	at     int
	object node
	name   string
}

func (n *propertyNode) pos() int { return n.at }

func (n *propertyNode) eval(e *env) (Value, error) {
	obj, err := n.object.eval(e)
	if err != nil {
		return nullValue, err
	}
	switch obj.kind {
	case KindString:
		return Number(float64(len([]rune(obj.str)))), nil
	case KindArray:
		return Number(float64(len(obj.arr))), nil
	}
	return nullValue, runtimeErrorf(n.at, "cannot read %s of %s", n.name, obj.kind)
}

type indexNode struct {
	at     int
	object node
	index  node
}

func (n *indexNode) pos() int { return n.at }

// eval returns null for out-of-range indexes, like an undefined element.
func (n *indexNode) eval(e *env) (Value, error) {
	obj, err := n.object.eval(e)
	if err != nil {
		return nullValue, err
	}
	idx, err := n.index.eval(e)
	if err != nil {
		return nullValue, err
	}

	f := idx.Number()
	if math.IsNaN(f) || f < 0 || f != math.Trunc(f) {
		return nullValue, nil
	}
	i := int(f)

	switch obj.kind {
	case KindArray:
		if i < len(obj.arr) {
			return obj.arr[i], nil
		}
		return nullValue, nil
	case KindString:
		runes := []rune(obj.str)
		if i < len(runes) {
			return String(string(runes[i])), nil
		}
		return nullValue, nil
	}
	return nullValue, runtimeErrorf(n.at, "cannot index %s", obj.kind)
}

type methodNode struct {
	at     int
	object node
	name   string
	args   []node
}

func (n *methodNode) pos() int { return n.at }

func (n *methodNode) eval(e *env) (Value, error) {
	recv, err := n.object.eval(e)
	if err != nil {
		return nullValue, err
	}
	args, err := evalArgs(e, n.args)
	if err != nil {
		return nullValue, err
	}
	return callMethod(n.at, recv, n.name, args)
}

// globalNode calls a global function such as Number() or Math.round().
type globalNode struct {
	at   int
	name string
	args []node
}

func (n *globalNode) pos() int { return n.at }

func (n *globalNode) eval(e *env) (Value, error) {
	args, err := evalArgs(e, n.args)
	if err != nil {
		return nullValue, err
	}
	return callGlobal(n.at, n.name, args)
}

func evalArgs(e *env, nodes []node) ([]Value, error) {
	args := make([]Value, len(nodes))
	for i, a := range nodes {
		v, err := a.eval(e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}
