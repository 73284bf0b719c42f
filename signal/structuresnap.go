package signal

import (
	"math"
	"sort"

	"vantage/state"
)

// structureLevel is one candidate target/stop anchor with a label
// identifying its source, for StructureSnap.TargetSource/StopSource.
type structureLevel struct {
	price float64
	label string
}

// targetBandFrac and stopBandFrac bound how far a candidate structural
// level's distance from entry may stray from the ATR-implied distance and
// still qualify as a snap target (spec.md §4.8: "within 30% of the ATR
// target's distance" for targets, "within 50% of the ATR stop's distance"
// for stops). A level outside the band is ignored even if it is the
// nearest level to entry overall; ATR passes through unchanged when nothing
// qualifies.
const (
	targetBandFrac = 0.30
	stopBandFrac   = 0.50
)

// ATRTargetStop derives the raw ATR-implied target and stop prices for a
// setup: 1.5 ATR to the first target and 1 ATR to the stop, on the correct
// side for direction. These are the default inputs to SnapTargetsAndStop
// when the caller has no opinion of its own about the raw levels.
func ATRTargetStop(direction state.Direction, entry, atr float64) (atrTarget, atrStop float64) {
	if direction == state.DirectionShort {
		return entry - 1.5*atr, entry + atr
	}
	return entry + 1.5*atr, entry - atr
}

// SnapTargetsAndStop snaps the caller's ATR-implied target/stop prices to
// the nearest real structural levels (Fibonacci, floor pivots, notable
// options strikes), falling back to the raw ATR prices when no structural
// level qualifies (spec.md §4.8). atrTarget and atrStop are prices, not
// distances; each carries its own independent band — a candidate target
// must land within 30% of |atrTarget-entry| and a candidate stop within
// 50% of |entry-atrStop|. target2 extends the same logic to twice the
// target distance. The result is a pure function of its inputs: same
// levels in, same snap out.
//
// Sidedness is guaranteed by construction: for a long, target1/target2 are
// always > entry and stop is always < entry; for a short the inequalities
// flip. This is the property checked by the structure-snap invariant
// (spec.md §8).
func SnapTargetsAndStop(direction state.Direction, entry, atrTarget, atrStop float64, fib state.FibLevels, pivots state.PivotPoints, strikes []float64) (target1, target2, stop float64, snap state.StructureSnap) {
	above, below := candidateLevels(entry, fib, pivots, strikes)

	atrTargetDist := math.Abs(atrTarget - entry)
	atrTarget2Dist := 2 * atrTargetDist
	atrStopDist := math.Abs(entry - atrStop)

	switch direction {
	case state.DirectionShort:
		t1, t1Label, ok1 := nearestBelow(below, entry, atrTargetDist, targetBandFrac)
		t2, t2Label, ok2 := secondNearestBelow(below, entry, t1, atrTarget2Dist, targetBandFrac)
		s, sLabel, ok3 := nearestAbove(above, entry, atrStopDist, stopBandFrac)

		if !ok1 {
			t1, t1Label = entry-atrTargetDist, "atr_target"
		}
		if !ok2 || t2 >= t1 {
			t2, t2Label = entry-atrTarget2Dist, "atr_target_2x"
		}
		if !ok3 {
			s, sLabel = entry+atrStopDist, "atr_stop"
		}
		return t1, t2, s, state.StructureSnap{Snapped: ok1 || ok3, TargetSource: t1Label + "|" + t2Label, StopSource: sLabel}

	default: // long
		t1, t1Label, ok1 := nearestAbove(above, entry, atrTargetDist, targetBandFrac)
		t2, t2Label, ok2 := secondNearestAbove(above, entry, t1, atrTarget2Dist, targetBandFrac)
		s, sLabel, ok3 := nearestBelow(below, entry, atrStopDist, stopBandFrac)

		if !ok1 {
			t1, t1Label = entry+atrTargetDist, "atr_target"
		}
		if !ok2 || t2 <= t1 {
			t2, t2Label = entry+atrTarget2Dist, "atr_target_2x"
		}
		if !ok3 {
			s, sLabel = entry-atrStopDist, "atr_stop"
		}
		return t1, t2, s, state.StructureSnap{Snapped: ok1 || ok3, TargetSource: t1Label + "|" + t2Label, StopSource: sLabel}
	}
}

func candidateLevels(entry float64, fib state.FibLevels, pivots state.PivotPoints, strikes []float64) (above, below []structureLevel) {
	add := func(price float64, label string) {
		if price == 0 {
			return
		}
		lvl := structureLevel{price: price, label: label}
		if price > entry {
			above = append(above, lvl)
		} else if price < entry {
			below = append(below, lvl)
		}
	}

	for label, price := range fib.Retracement {
		add(price, "fib_"+label)
	}
	for label, price := range fib.Extension {
		add(price, "fib_"+label)
	}
	add(pivots.R1, "pivot_r1")
	add(pivots.R2, "pivot_r2")
	add(pivots.S1, "pivot_s1")
	add(pivots.S2, "pivot_s2")
	for _, strike := range strikes {
		add(strike, "strike")
	}

	sort.Slice(above, func(i, j int) bool { return above[i].price < above[j].price })
	sort.Slice(below, func(i, j int) bool { return below[i].price > below[j].price })
	return above, below
}

// withinBand reports whether distance (a candidate level's distance from
// entry) falls within bandFrac of atrDist, the ATR-implied distance for the
// same target/stop (spec.md §4.8).
func withinBand(distance, atrDist, bandFrac float64) bool {
	if atrDist <= 0 {
		return false
	}
	low := atrDist * (1 - bandFrac)
	high := atrDist * (1 + bandFrac)
	return distance >= low && distance <= high
}

// nearestAbove returns the first (closest-to-entry, since levels is sorted
// ascending by price) level above entry whose distance from entry is within
// bandFrac of atrDist, skipping any closer level that falls outside the
// band. Levels is already sorted nearest-first, so the first qualifying
// entry is also the spec's "closest in price wins" tie-break.
func nearestAbove(levels []structureLevel, entry, atrDist, bandFrac float64) (float64, string, bool) {
	for _, l := range levels {
		if withinBand(l.price-entry, atrDist, bandFrac) {
			return l.price, l.label, true
		}
	}
	return 0, "", false
}

// secondNearestAbove is nearestAbove restricted to levels beyond first (the
// target1 snap), gated against its own ATR-implied distance (atrDist is
// typically the target2 ATR multiple).
func secondNearestAbove(levels []structureLevel, entry, first, atrDist, bandFrac float64) (float64, string, bool) {
	for _, l := range levels {
		if l.price > first && withinBand(l.price-entry, atrDist, bandFrac) {
			return l.price, l.label, true
		}
	}
	return 0, "", false
}

func nearestBelow(levels []structureLevel, entry, atrDist, bandFrac float64) (float64, string, bool) {
	for _, l := range levels {
		if withinBand(entry-l.price, atrDist, bandFrac) {
			return l.price, l.label, true
		}
	}
	return 0, "", false
}

func secondNearestBelow(levels []structureLevel, entry, first, atrDist, bandFrac float64) (float64, string, bool) {
	for _, l := range levels {
		if l.price < first && withinBand(entry-l.price, atrDist, bandFrac) {
			return l.price, l.label, true
		}
	}
	return 0, "", false
}
