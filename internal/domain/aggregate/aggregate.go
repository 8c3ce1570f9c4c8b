// Package aggregate implements the panel aggregation rule: drop one high and
// one low value, average the rest. Everything in here is pure computation over
// fixed-point values; no I/O, no errors.
package aggregate

import (
	"sort"

	"github.com/okian/salto/internal/domain/points"
)

// minPanelForDrop is the smallest panel where dropping applies. With two or
// fewer judges there is nothing meaningful to trim.
const minPanelForDrop = 3

// Policy controls whether the high/low drop applies for a panel.
type Policy struct {
	// DropHighLow enables removal of one minimum and one maximum value when
	// the panel is large enough.
	DropHighLow bool

	// PanelSize is the declared judge count for the apparatus. Advisory only:
	// aggregation always works over the values actually submitted.
	PanelSize int
}

// DefaultPolicy is the hard-coded fallback used when no apparatus rule is
// configured: drop exactly one high and one low on panels of three or more.
func DefaultPolicy() Policy {
	return Policy{DropHighLow: true}
}

// Result is the audited outcome of aggregating one panel.
// Scores always carries the untouched input, in submission order.
type Result struct {
	Scores         []points.P
	DroppedHigh    *points.P
	DroppedLow     *points.P
	AveragedScores []points.P
	Average        points.P
}

// Aggregate applies the default policy. See AggregateWithPolicy.
func Aggregate(values []points.P) Result {
	return AggregateWithPolicy(values, DefaultPolicy())
}

// AggregateWithPolicy reduces a panel's values to an audited average.
//
// Length 0 yields a zero result; this is a valid, if incomplete, state.
// Lengths 1 and 2 average everything. Length >= 3 with dropping enabled sorts
// ascending and removes exactly one copy of the minimum and one copy of the
// maximum, even when duplicates sit at the extremes, then averages the middle.
// The average rounds half away from zero on the thousandths grid.
func AggregateWithPolicy(values []points.P, policy Policy) Result {
	scores := append([]points.P(nil), values...)

	if len(scores) == 0 {
		return Result{Scores: []points.P{}, AveragedScores: []points.P{}}
	}

	if !policy.DropHighLow || len(scores) < minPanelForDrop {
		return Result{
			Scores:         scores,
			AveragedScores: append([]points.P(nil), scores...),
			Average:        points.Mean(scores),
		}
	}

	sorted := append([]points.P(nil), scores...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	low := sorted[0]
	high := sorted[len(sorted)-1]
	middle := append([]points.P(nil), sorted[1:len(sorted)-1]...)

	return Result{
		Scores:         scores,
		DroppedHigh:    &high,
		DroppedLow:     &low,
		AveragedScores: middle,
		Average:        points.Mean(middle),
	}
}
