package engine

import (
	"context"
	"fmt"
	"math"

	"gridcalc/internal/expression"
	"gridcalc/internal/protocol"
	"gridcalc/internal/tuples"
	"gridcalc/internal/types"
	"gridcalc/internal/worker"
)

// Result - итог агрегации. Для COUNT заполнен Count, для остальных Value.
type Result struct {
	Agg   types.AggKind
	Value float64
	Count int
}

func (r Result) IsCount() bool {
	return r.Agg == types.AggCount
}

// Engine проверяет запрос и считает агрегат в пуле вычислений
type Engine struct {
	pool    *worker.Pool
	builder *tuples.Builder
}

func New(pool *worker.Pool, builder *tuples.Builder) *Engine {
	if builder == nil {
		builder = tuples.NewBuilder(0)
	}
	return &Engine{pool: pool, builder: builder}
}

func (e *Engine) Pool() *worker.Pool {
	return e.pool
}

// Compute проверяет переменные, затем одной задачей в пуле строит кортежи и считает агрегат
func (e *Engine) Compute(ctx context.Context, c *protocol.Computation) (Result, error) {
	if err := Validate(c); err != nil {
		return Result{}, err
	}

	return worker.Run(ctx, e.pool, func() (Result, error) {
		set, err := e.builder.Build(c.Combine, c.Ranges)
		if err != nil {
			return Result{}, err
		}
		return Aggregate(c, set)
	})
}

// Validate проверяет, что вычисляемые выражения используют только объявленные переменные.
// COUNT выражения не вычисляет, AVG вычисляет только первое.
func Validate(c *protocol.Computation) error {
	var checked []*expression.Expression
	switch c.Agg {
	case types.AggCount:
		return nil
	case types.AggAvg:
		if len(c.Expressions) > 0 {
			checked = c.Expressions[:1]
		}
	case types.AggMax, types.AggMin:
		checked = c.Expressions
	default:
		return fmt.Errorf("unknown aggregation %q", c.Agg)
	}

	declared := make(map[string]bool, len(c.Ranges))
	for _, r := range c.Ranges {
		declared[r.Name] = true
	}

	for _, expr := range checked {
		for _, name := range expr.Variables() {
			if !declared[name] {
				return types.NewError(types.ErrUndeclaredVariable,
					"Not all variables in the expressions are declared in the VariableValues")
			}
		}
	}
	return nil
}

// Aggregate сводит выражения по набору кортежей
func Aggregate(c *protocol.Computation, set []types.Tuple) (Result, error) {
	res := Result{Agg: c.Agg}
	if c.Agg == types.AggCount {
		res.Count = len(set)
		return res, nil
	}

	names := c.VariableNames()
	binding := make(map[string]float64, len(names))
	eval := func(expr *expression.Expression, t types.Tuple) (float64, error) {
		for i, name := range names {
			binding[name] = t[i]
		}
		return expr.Eval(binding)
	}

	switch c.Agg {
	case types.AggMax, types.AggMin:
		acc := math.Inf(-1)
		better := func(v, acc float64) bool { return v > acc }
		if c.Agg == types.AggMin {
			acc = math.Inf(1)
			better = func(v, acc float64) bool { return v < acc }
		}

		for _, expr := range c.Expressions {
			for _, t := range set {
				v, err := eval(expr, t)
				if err != nil {
					return Result{}, err
				}
				if better(v, acc) {
					acc = v
				}
			}
		}
		res.Value = acc

	case types.AggAvg:
		if len(c.Expressions) == 0 {
			return Result{}, fmt.Errorf("AVG needs at least one expression")
		}
		if len(set) == 0 {
			return Result{}, types.NewError(types.ErrEmptyDomain, "The range of one of the variables is the empty set")
		}

		var sum float64
		for _, t := range set {
			v, err := eval(c.Expressions[0], t)
			if err != nil {
				return Result{}, err
			}
			sum += v
		}
		res.Value = sum / float64(len(set))

	default:
		return Result{}, fmt.Errorf("unknown aggregation %q", c.Agg)
	}

	return res, nil
}
