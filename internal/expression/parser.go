package expression

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"gridcalc/internal/types"
)

// Грамматика (после удаления пробелов):
//
//	<expr>     ::= <number> | <variable> | "(" <expr> <operator> <expr> ")"
//	<number>   ::= digit+ ("." digit+)?
//	<variable> ::= [a-z] [a-z0-9]*
//	<operator> ::= "+" | "-" | "*" | "/" | "^"
type Parser struct {
	expr   string
	cursor int
}

func NewParser(expr string) *Parser {
	return &Parser{expr: stripSpaces(expr)}
}

// Parse разбирает строку целиком в дерево выражения
func Parse(expr string) (*Expression, error) {
	return NewParser(expr).Parse()
}

func (p *Parser) Parse() (*Expression, error) {
	if p.expr == "" {
		return nil, p.fail("Expression is empty")
	}
	p.cursor = 0

	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cursor < len(p.expr) {
		return nil, p.fail("Unexpected char at %d after the end of the expression: '%c'", p.cursor, p.current())
	}
	return &Expression{Root: root}, nil
}

func (p *Parser) parseExpr() (*Node, error) {
	if p.cursor >= len(p.expr) {
		return nil, p.fail("Unexpected end of the expression at %d", p.cursor)
	}

	c := p.expr[p.cursor]
	switch {
	case isDigit(c):
		return p.parseNumber()
	case isLower(c):
		return p.parseVariable(), nil
	case c == '(':
		p.cursor++

		left, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		op, err := p.parseOperator()
		if err != nil {
			return nil, err
		}
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if p.cursor >= len(p.expr) {
			return nil, p.fail("Missing a closed bracket at the end of the expression")
		}
		if p.expr[p.cursor] != ')' {
			return nil, p.fail("Unexpected char at %d instead of closed bracket: '%c'", p.cursor, p.current())
		}
		p.cursor++

		return Apply(op, left, right), nil
	}

	return nil, p.fail("Unexpected char at %d: '%c'", p.cursor, p.current())
}

func (p *Parser) parseNumber() (*Node, error) {
	start := p.cursor
	p.skipDigits()
	// дробная часть берется только если после точки есть цифра
	if p.cursor+1 < len(p.expr) && p.expr[p.cursor] == '.' && isDigit(p.expr[p.cursor+1]) {
		p.cursor++
		p.skipDigits()
	}

	text := p.expr[start:p.cursor]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.fail("Invalid number at %d: '%s'", start, text)
	}
	return Constant(value), nil
}

func (p *Parser) parseVariable() *Node {
	start := p.cursor
	p.cursor++
	for p.cursor < len(p.expr) && (isLower(p.expr[p.cursor]) || isDigit(p.expr[p.cursor])) {
		p.cursor++
	}
	return Variable(p.expr[start:p.cursor])
}

func (p *Parser) parseOperator() (byte, error) {
	if p.cursor >= len(p.expr) {
		return 0, p.fail("Unexpected end of the expression at %d instead of operator", p.cursor)
	}

	c := p.expr[p.cursor]
	switch {
	case isOperator(c):
		p.cursor++
		return c, nil
	case isSymbol(c):
		return 0, p.fail("Unknown operator at %d: '%c'", p.cursor, c)
	}
	return 0, p.fail("Unexpected char at %d instead of operator: '%c'", p.cursor, p.current())
}

func (p *Parser) skipDigits() {
	for p.cursor < len(p.expr) && isDigit(p.expr[p.cursor]) {
		p.cursor++
	}
}

func (p *Parser) current() rune {
	r, _ := utf8.DecodeRuneInString(p.expr[p.cursor:])
	return r
}

func (p *Parser) fail(format string, args ...any) error {
	return types.NewError(types.ErrInvalidExpression, format, args...)
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}

// isSymbol - знак пунктуации, который мог бы быть оператором
func isSymbol(c byte) bool {
	if c >= utf8.RuneSelf || c == '(' || c == ')' || c == '.' {
		return false
	}
	return unicode.IsPunct(rune(c)) || unicode.IsSymbol(rune(c))
}
