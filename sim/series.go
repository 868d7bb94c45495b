package sim

import "fmt"

// QuantitySeries is the stock ledger of one item: one value per tick plus the running maximum.
//
// Entries past the end are implicitly equal to the last recorded value; ExtrapolateUntil
// materializes them. The maximum is tracked in two parts, the settled prefix
// values[:Len()-1] and the last entry, so the common case (edits at the tail) stays O(1).
type QuantitySeries struct {
	values      []int64
	headMax     int64 // max over values[:len-1]; meaningless while len <= 1
	headMaxTick int64
}

// NewQuantitySeries creates a series of length 1 holding start.
// capacity reserves room for that many entries so extrapolation grows without reallocating.
func NewQuantitySeries(start int64, capacity int) *QuantitySeries {
	if capacity < 1 {
		capacity = 1
	}
	values := make([]int64, 1, capacity)
	values[0] = start
	return &QuantitySeries{values: values}
}

// Len returns the number of recorded entries.
func (s *QuantitySeries) Len() int {
	return len(s.values)
}

// Last returns the most recent entry, or 0 for an empty series.
func (s *QuantitySeries) Last() int64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

// At returns the stock at tick. Ticks past the end read as the last value (flat hold).
func (s *QuantitySeries) At(tick int64) int64 {
	checkTick(tick)
	if tick >= int64(len(s.values)) {
		return s.Last()
	}
	return s.values[tick]
}

// Values returns a copy of the recorded entries.
func (s *QuantitySeries) Values() []int64 {
	return append([]int64(nil), s.values...)
}

// ExtrapolateUntil extends the series with the last value so it has an entry for every
// tick up to and including tick. It returns the last value. Calling it again with a tick
// already covered changes nothing.
func (s *QuantitySeries) ExtrapolateUntil(tick int64) int64 {
	checkTick(tick)
	n := int64(len(s.values))
	if tick < n {
		return s.Last()
	}
	last := s.Last()
	// the current last entry and every filler except the new tail join the prefix;
	// fillers equal last, so only the earliest of them can become the prefix maximum
	if n == 1 || (n > 1 && last > s.headMax) {
		s.headMax, s.headMaxTick = last, n-1
	}
	for i := n; i <= tick; i++ {
		s.values = append(s.values, last)
	}
	return last
}

// ChangeValue adds delta to the entry at tick, extrapolating first when tick is past the end.
func (s *QuantitySeries) ChangeValue(tick int64, delta int64) {
	checkTick(tick)
	if tick >= int64(len(s.values)) {
		s.ExtrapolateUntil(tick)
	}
	s.values[tick] += delta

	if tick == int64(len(s.values))-1 {
		// tail entries are compared on read
		return
	}
	switch {
	case tick == s.headMaxTick && delta < 0:
		s.rescanHead()
	case s.values[tick] > s.headMax || (s.values[tick] == s.headMax && tick < s.headMaxTick):
		s.headMax, s.headMaxTick = s.values[tick], tick
	}
}

// MaxValue returns the largest recorded value, including the starting value.
// An empty series reports 0.
func (s *QuantitySeries) MaxValue() int64 {
	v, _ := s.max()
	return v
}

// MaxTick returns the earliest tick holding MaxValue, or -1 for an empty series.
func (s *QuantitySeries) MaxTick() int64 {
	_, t := s.max()
	return t
}

func (s *QuantitySeries) max() (int64, int64) {
	n := int64(len(s.values))
	if n == 0 {
		return 0, -1
	}
	last := s.values[n-1]
	if n == 1 || last > s.headMax {
		return last, n - 1
	}
	return s.headMax, s.headMaxTick
}

func (s *QuantitySeries) rescanHead() {
	s.headMax, s.headMaxTick = s.values[0], 0
	for i := 1; i < len(s.values)-1; i++ {
		if s.values[i] > s.headMax {
			s.headMax, s.headMaxTick = s.values[i], int64(i)
		}
	}
}

func checkTick(tick int64) {
	if tick < 0 {
		panic(fmt.Sprintf("sim: negative tick %d", tick))
	}
}
