package estimate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ratewise/ratewise/internal/model"
)

// Defaults applied while normalizing model output.
const (
	defaultCategory   = "materials"
	defaultLineName   = "Line"
	defaultQty        = 1.0
	defaultUnitPrice  = 0.0
	defaultConfidence = 0.6
	defaultRationale  = "Estimated from comparable historical items and current market pricing."
)

// numeric coerces a JSON value to a finite number. JSON numbers and numeric
// strings are accepted; anything else, including NaN, ±Inf and numbers
// outside float64 range, is absent.
func numeric(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// text returns v as a trimmed string when it is a non-empty string.
func text(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// NormalizeBreakdownLine applies the field defaults to one raw breakdown
// element. It reports false when the element is not an object or when its
// total is negative or not finite; such lines are dropped.
//
//	category   lower-cased string, else "materials"
//	name       string, else "Line"
//	qty        finite number, else 1
//	unit       string, else the request unit
//	unit_price finite number, else 0
//	total      finite number, else qty * unit_price
func NormalizeBreakdownLine(raw any, unit string) (model.BreakdownLine, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.BreakdownLine{}, false
	}

	line := model.BreakdownLine{
		Category:  defaultCategory,
		Name:      defaultLineName,
		Qty:       defaultQty,
		Unit:      unit,
		UnitPrice: defaultUnitPrice,
	}
	if s, ok := text(obj["category"]); ok {
		line.Category = strings.ToLower(s)
	}
	if s, ok := text(obj["name"]); ok {
		line.Name = s
	}
	if f, ok := numeric(obj["qty"]); ok {
		line.Qty = f
	}
	if s, ok := text(obj["unit"]); ok {
		line.Unit = s
	}
	if f, ok := numeric(obj["unit_price"]); ok {
		line.UnitPrice = f
	}
	if f, ok := numeric(obj["total"]); ok {
		line.Total = f
	} else {
		line.Total = line.Qty * line.UnitPrice
	}

	if math.IsNaN(line.Total) || math.IsInf(line.Total, 0) || line.Total < 0 {
		return model.BreakdownLine{}, false
	}
	return line, true
}

// NormalizeBreakdown normalizes every element of a raw breakdown array,
// dropping invalid lines. A non-array value yields an empty breakdown.
func NormalizeBreakdown(raw any, unit string) []model.BreakdownLine {
	items, _ := raw.([]any)
	lines := make([]model.BreakdownLine, 0, len(items))
	for _, item := range items {
		if line, ok := NormalizeBreakdownLine(item, unit); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// SumTotals adds the line totals in decimal arithmetic.
func SumTotals(lines []model.BreakdownLine) float64 {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(decimal.NewFromFloat(line.Total))
	}
	f, _ := sum.Float64()
	return f
}

// Reconcile picks the final unit rate. A finite positive breakdown sum wins;
// otherwise the model's rate is used, then the baseline, then 0. Finite line
// totals can still overflow float64 when added, so the sum is checked again.
func Reconcile(modelRate *float64, baseline *float64, lines []model.BreakdownLine) (rate float64, fromBreakdown bool) {
	if sum := SumTotals(lines); sum > 0 && !math.IsInf(sum, 0) {
		return sum, true
	}

	switch {
	case modelRate != nil:
		rate = *modelRate
	case baseline != nil:
		rate = *baseline
	}
	return math.Max(0, rate), false
}

// clamp01 bounds v to [0, 1].
func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
