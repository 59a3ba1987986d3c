package expression

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gridcalc/internal/types"
)

type NodeKind string

const (
	ConstantNode NodeKind = "constant"
	VariableNode NodeKind = "variable"
	OperatorNode NodeKind = "operator"
)

// Node - узел дерева выражения. Какие поля заполнены, зависит от Kind:
// ConstantNode - Value, VariableNode - Name, OperatorNode - Op, Left и Right (оба не nil).
type Node struct {
	Kind  NodeKind
	Value float64
	Name  string
	Op    byte
	Left  *Node
	Right *Node
}

func Constant(value float64) *Node {
	return &Node{Kind: ConstantNode, Value: value}
}

func Variable(name string) *Node {
	return &Node{Kind: VariableNode, Name: name}
}

func Apply(op byte, left, right *Node) *Node {
	return &Node{Kind: OperatorNode, Op: op, Left: left, Right: right}
}

func isOperator(c byte) bool {
	switch c {
	case '+', '-', '*', '/', '^':
		return true
	}
	return false
}

// Eval вычисляет узел при заданных значениях переменных.
// Деление на ноль и прочие особые случаи - по IEEE-754, без ошибок.
func (n *Node) Eval(binding map[string]float64) (float64, error) {
	switch n.Kind {
	case ConstantNode:
		return n.Value, nil
	case VariableNode:
		value, ok := binding[n.Name]
		if !ok {
			return 0, types.NewError(types.ErrUnboundVariable, "Variable %s has no value", n.Name)
		}
		return value, nil
	case OperatorNode:
		a, err := n.Left.Eval(binding)
		if err != nil {
			return 0, err
		}
		b, err := n.Right.Eval(binding)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case '+':
			return a + b, nil
		case '-':
			return a - b, nil
		case '*':
			return a * b, nil
		case '/':
			return a / b, nil
		case '^':
			return math.Pow(a, b), nil
		}
		return 0, fmt.Errorf("unknown operator %q", n.Op)
	}
	return 0, fmt.Errorf("unknown node kind %q", n.Kind)
}

func (n *Node) writeTo(sb *strings.Builder) {
	switch n.Kind {
	case ConstantNode:
		sb.WriteString(strconv.FormatFloat(n.Value, 'f', -1, 64))
	case VariableNode:
		sb.WriteString(n.Name)
	case OperatorNode:
		sb.WriteByte('(')
		n.Left.writeTo(sb)
		sb.WriteByte(n.Op)
		n.Right.writeTo(sb)
		sb.WriteByte(')')
	}
}

func (n *Node) collectVariables(seen map[string]bool, names []string) []string {
	switch n.Kind {
	case VariableNode:
		if !seen[n.Name] {
			seen[n.Name] = true
			names = append(names, n.Name)
		}
	case OperatorNode:
		names = n.Left.collectVariables(seen, names)
		names = n.Right.collectVariables(seen, names)
	}
	return names
}

// Expression - разобранное выражение
type Expression struct {
	Root *Node
}

func (e *Expression) Eval(binding map[string]float64) (float64, error) {
	return e.Root.Eval(binding)
}

// Variables возвращает имена переменных выражения без повторов,
// в порядке первого появления
func (e *Expression) Variables() []string {
	return e.Root.collectVariables(make(map[string]bool), nil)
}

// String печатает выражение в канонической форме без пробелов: "((x*x)+1)".
// Результат снова разбирается Parse в то же дерево.
func (e *Expression) String() string {
	var sb strings.Builder
	e.Root.writeTo(&sb)
	return sb.String()
}
