package session

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gridcalc/internal/engine"
)

// FormatDouble печатает число так же, как Double.toString в JVM:
// "4.0", "0.001", "1.0E7", "1.5E-4", "Infinity", "NaN".
func FormatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	abs := math.Abs(v)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(n)
}

// FormatResult печатает итог агрегации: COUNT целым числом, остальное как double
func FormatResult(r engine.Result) string {
	if r.IsCount() {
		return strconv.Itoa(r.Count)
	}
	return FormatDouble(r.Value)
}

// formatSeconds печатает миллисекунды как секунды с тремя знаками
func formatSeconds(ms float64) string {
	return fmt.Sprintf("%.3f", ms/1000)
}

func okLine(elapsedMs int64, result string) string {
	return "OK;" + formatSeconds(float64(elapsedMs)) + ";" + strings.ToUpper(result)
}

func errLine(msg string) string {
	return "ERR;" + strings.ToUpper(msg)
}
