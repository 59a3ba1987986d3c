package protocol

import (
	"strconv"
	"strings"

	"gridcalc/internal/expression"
	"gridcalc/internal/types"
)

// Грамматика вычислительного запроса:
//
//	<comp>     ::= <agg> "_" <combine> ";" <ranges> ";" <exprlist>
//	<agg>      ::= "MAX" | "MIN" | "AVG" | "COUNT"
//	<combine>  ::= "GRID" | "LIST"
//	<ranges>   ::= <range> ("," <range>)*
//	<range>    ::= <varname> ":" <num> ":" <num> ":" <num>
//	<exprlist> ::= <expr> (";" <expr>)*
var (
	aggKeywords     = []types.AggKind{types.AggMax, types.AggMin, types.AggAvg, types.AggCount}
	combineKeywords = []types.CombineKind{types.CombineGrid, types.CombineList}
)

type Parser struct {
	line   string
	cursor int
}

// Parse разбирает одну (уже обрезанную) строку запроса
func Parse(line string) (*Request, error) {
	return (&Parser{line: line}).Parse()
}

func (p *Parser) Parse() (*Request, error) {
	switch p.line {
	case QuitCommand:
		return &Request{Kind: QuitRequest, Raw: p.line}, nil
	case string(types.StatRequestCount), string(types.StatAverageTime), string(types.StatMaxTime):
		return &Request{Kind: StatRequest, Raw: p.line, Stat: types.StatKind(p.line)}, nil
	}

	comp, err := p.parseComputation()
	if err != nil {
		return nil, err
	}
	return &Request{Kind: ComputationRequest, Raw: p.line, Computation: comp}, nil
}

func (p *Parser) parseComputation() (*Computation, error) {
	p.cursor = 0
	comp := &Computation{}

	agg, ok := matchKeyword(p, aggKeywords)
	if !ok {
		return nil, malformed("Invalid request type")
	}
	comp.Agg = agg

	if !p.consume('_') {
		return nil, malformed("Missing underscore after computation type")
	}

	combine, ok := matchKeyword(p, combineKeywords)
	if !ok {
		return nil, malformed("Invalid ValuesKind parameter")
	}
	comp.Combine = combine

	if !p.consume(';') {
		return nil, malformed("Missing semicolon after ValuesKind")
	}

	declared := make(map[string]bool)
	for {
		r, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		if declared[r.Name] {
			return nil, malformed("Variable %s is declared more than once", r.Name)
		}
		declared[r.Name] = true
		comp.Ranges = append(comp.Ranges, r)

		if !p.consume(',') {
			break
		}
	}

	if !p.consume(';') {
		return nil, malformed("Missing semicolon after last VariableValuesFunction")
	}

	// остаток строки - выражения через ';', пустое выражение тоже ошибка
	for _, text := range strings.Split(p.line[p.cursor:], ";") {
		expr, err := expression.Parse(text)
		if err != nil {
			return nil, types.WrapError(types.ErrMalformedRequest, err, "Invalid expression syntax: %s", err.Error())
		}
		comp.Expressions = append(comp.Expressions, expr)
	}

	return comp, nil
}

// parseRange разбирает name:start:step:end и оставляет курсор на разделителе после него
func (p *Parser) parseRange() (types.VariableRange, error) {
	start := p.cursor
	rest := p.line[p.cursor:]

	nameLen := 0
	for nameLen < len(rest) && (isLower(rest[nameLen]) || nameLen > 0 && isDigit(rest[nameLen])) {
		nameLen++
	}

	fields := strings.SplitN(rest[nameLen:], ":", 4)
	end := -1
	if len(fields) == 4 && fields[0] == "" {
		end = strings.IndexAny(fields[3], ",;")
	}
	if nameLen == 0 || end < 0 || strings.Contains(fields[3][:end], ":") {
		return types.VariableRange{}, malformed("VariableValues syntax does not match VarName:Num:Num:Num at %d", start)
	}

	name := rest[:nameLen]
	values := [3]float64{}
	for i, text := range []string{fields[1], fields[2], fields[3][:end]} {
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return types.VariableRange{}, malformed("Invalid number \"%s\" in the range of %s", text, name)
		}
		values[i] = v
	}

	r, err := types.NewVariableRange(name, values[0], values[1], values[2])
	if err != nil {
		return types.VariableRange{}, types.WrapError(types.ErrMalformedRequest, err, "%s", err.Error())
	}

	// name + ':' + три поля + два ':' между ними
	p.cursor += nameLen + 1 + len(fields[1]) + 1 + len(fields[2]) + 1 + end
	return r, nil
}

func matchKeyword[K ~string](p *Parser, keywords []K) (K, bool) {
	for _, kw := range keywords {
		if strings.HasPrefix(p.line[p.cursor:], string(kw)) {
			p.cursor += len(kw)
			return kw, true
		}
	}
	var zero K
	return zero, false
}

func (p *Parser) consume(c byte) bool {
	if p.cursor < len(p.line) && p.line[p.cursor] == c {
		p.cursor++
		return true
	}
	return false
}

func malformed(format string, args ...any) error {
	return types.NewError(types.ErrMalformedRequest, format, args...)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}
