package types

import "math"

// AggKind - вид агрегации вычислительного запроса
type AggKind string

const (
	AggMax   AggKind = "MAX"
	AggMin   AggKind = "MIN"
	AggAvg   AggKind = "AVG"
	AggCount AggKind = "COUNT"
)

// CombineKind определяет, как значения переменных сводятся в кортежи
type CombineKind string

const (
	CombineGrid CombineKind = "GRID"
	CombineList CombineKind = "LIST"
)

// StatKind - вид запроса статистики
type StatKind string

const (
	StatRequestCount StatKind = "STAT_REQS"
	StatAverageTime  StatKind = "STAT_AVG_TIME"
	StatMaxTime      StatKind = "STAT_MAX_TIME"
)

// VariableRange описывает диапазон значений одной переменной.
// Создается только через NewVariableRange: Step > 0, End >= Start.
type VariableRange struct {
	Name  string
	Start float64
	Step  float64
	End   float64
}

func NewVariableRange(name string, start, step, end float64) (VariableRange, error) {
	if !finite(start) || !finite(step) || !finite(end) {
		return VariableRange{}, NewError(ErrInvalidRange,
			"Range of %s must be bounded by finite numbers", name)
	}
	if !(step > 0) {
		return VariableRange{}, NewError(ErrInvalidRange,
			"Step value for %s must be > 0", name)
	}
	if end < start {
		return VariableRange{}, NewError(ErrInvalidRange,
			"End of the range of %s cannot be smaller than the start of the range", name)
	}
	return VariableRange{Name: name, Start: start, Step: step, End: end}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Tuple - одно конкретное присваивание значений всем объявленным переменным,
// в порядке объявления диапазонов
type Tuple []float64

// Equal сравнивает кортежи поэлементно
func (t Tuple) Equal(other Tuple) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}
