package tuples

import (
	"fmt"
	"math"

	"gridcalc/internal/types"
)

// Builder разворачивает диапазоны переменных в наборы значений и сводит их в кортежи.
// MaxDomainSize ограничивает число значений одной переменной и число кортежей GRID,
// 0 - без ограничения.
type Builder struct {
	MaxDomainSize int
}

func NewBuilder(maxDomainSize int) *Builder {
	return &Builder{MaxDomainSize: maxDomainSize}
}

// Expand возвращает значения start, start+step, ... пока они <= end, и затем end.
// Последовательность строго возрастает, поэтому повторов в ней нет.
func (b *Builder) Expand(r types.VariableRange) ([]float64, error) {
	var values []float64

	for x := r.Start; x <= r.End; {
		values = append(values, x)
		if b.MaxDomainSize > 0 && len(values) > b.MaxDomainSize {
			return nil, types.NewError(types.ErrDomainTooLarge,
				"The range of %s has more than %d values", r.Name, b.MaxDomainSize)
		}

		next := x + r.Step
		if next <= x {
			// шаг теряется при округлении, до end так не дойти
			if x < r.End {
				return nil, types.NewError(types.ErrDomainTooLarge,
					"The range of %s cannot be advanced by its step from %v", r.Name, x)
			}
			break
		}
		x = next
	}

	if len(values) == 0 || values[len(values)-1] != r.End {
		values = append(values, r.End)
		if b.MaxDomainSize > 0 && len(values) > b.MaxDomainSize {
			return nil, types.NewError(types.ErrDomainTooLarge,
				"The range of %s has more than %d values", r.Name, b.MaxDomainSize)
		}
	}

	return values, nil
}

// Build разворачивает все диапазоны и сводит их в кортежи выбранным способом
func (b *Builder) Build(combine types.CombineKind, ranges []types.VariableRange) ([]types.Tuple, error) {
	sets := make([][]float64, len(ranges))
	for i, r := range ranges {
		values, err := b.Expand(r)
		if err != nil {
			return nil, err
		}
		sets[i] = values
	}

	switch combine {
	case types.CombineGrid:
		return b.Grid(sets)
	case types.CombineList:
		return List(sets)
	}
	return nil, fmt.Errorf("unknown combine kind %q", combine)
}

// Grid строит декартово произведение наборов. Первая переменная меняется медленнее всех.
func (b *Builder) Grid(sets [][]float64) ([]types.Tuple, error) {
	if err := checkNotEmpty(sets); err != nil {
		return nil, err
	}

	n := len(sets)
	total := 1
	for _, s := range sets {
		// произведение и размер общего массива должны помещаться в int даже без лимита
		if total > math.MaxInt/len(s) || n > 0 && total*len(s) > math.MaxInt/n {
			return nil, types.NewError(types.ErrDomainTooLarge, "The grid has too many tuples")
		}
		total *= len(s)
		if b.MaxDomainSize > 0 && total > b.MaxDomainSize {
			return nil, types.NewError(types.ErrDomainTooLarge,
				"The grid has more than %d tuples", b.MaxDomainSize)
		}
	}

	flat := make([]float64, total*n)
	result := make([]types.Tuple, total)
	idx := make([]int, n)

	for i := 0; i < total; i++ {
		t := types.Tuple(flat[i*n : (i+1)*n : (i+1)*n])
		for j, s := range sets {
			t[j] = s[idx[j]]
		}
		result[i] = t

		for j := n - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < len(sets[j]) {
				break
			}
			idx[j] = 0
		}
	}

	return result, nil
}

// List сводит наборы поэлементно: i-й кортеж составлен из i-х значений.
// Все наборы должны быть одной длины.
func List(sets [][]float64) ([]types.Tuple, error) {
	if err := checkNotEmpty(sets); err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return []types.Tuple{{}}, nil
	}

	size := len(sets[0])
	for _, s := range sets {
		if len(s) != size {
			return nil, types.NewError(types.ErrIncompatibleRanges,
				"Variables' ranges do not have the same magnitude")
		}
	}

	result := make([]types.Tuple, size)
	for i := 0; i < size; i++ {
		t := make(types.Tuple, len(sets))
		for j, s := range sets {
			t[j] = s[i]
		}
		result[i] = t
	}
	return result, nil
}

func checkNotEmpty(sets [][]float64) error {
	for _, s := range sets {
		if len(s) == 0 {
			return types.NewError(types.ErrEmptyDomain, "The range of one of the variables is the empty set")
		}
	}
	return nil
}
