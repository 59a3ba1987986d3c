package protocol

import (
	"gridcalc/internal/expression"
	"gridcalc/internal/types"
)

const (
	QuitCommand = "BYE"
)

type RequestKind string

const (
	QuitRequest        RequestKind = "quit"
	StatRequest        RequestKind = "stat"
	ComputationRequest RequestKind = "computation"
)

// Request - разобранная строка запроса. Stat заполнен только для StatRequest,
// Computation - только для ComputationRequest.
type Request struct {
	Kind        RequestKind
	Raw         string
	Stat        types.StatKind
	Computation *Computation
}

type Computation struct {
	Agg         types.AggKind
	Combine     types.CombineKind
	Ranges      []types.VariableRange // порядок задает порядок компонент кортежа
	Expressions []*expression.Expression
}

// VariableNames возвращает имена объявленных переменных в порядке объявления
func (c *Computation) VariableNames() []string {
	names := make([]string, len(c.Ranges))
	for i, r := range c.Ranges {
		names[i] = r.Name
	}
	return names
}
