package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantitySeries_New_HoldsStartingValue(t *testing.T) {
	s := NewQuantitySeries(7, 10)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(7), s.At(0))
	assert.Equal(t, int64(7), s.MaxValue())
	assert.Equal(t, int64(0), s.MaxTick())
}

func TestQuantitySeries_ExtrapolateUntil_FlatHoldAndIdempotent(t *testing.T) {
	// GIVEN a series at 4
	s := NewQuantitySeries(4, 0)

	// WHEN extrapolated to tick 3
	got := s.ExtrapolateUntil(3)

	// THEN every new entry holds the last value and the length is tick+1
	assert.Equal(t, int64(4), got)
	assert.Equal(t, []int64{4, 4, 4, 4}, s.Values())

	// WHEN extrapolated again with the same or a smaller tick
	s.ChangeValue(3, 2)
	assert.Equal(t, int64(6), s.ExtrapolateUntil(3))
	assert.Equal(t, int64(6), s.ExtrapolateUntil(1))

	// THEN nothing recorded changes
	assert.Equal(t, []int64{4, 4, 4, 6}, s.Values())
}

func TestQuantitySeries_ChangeValue_ExtendsBeforeApplying(t *testing.T) {
	s := NewQuantitySeries(1, 0)
	s.ChangeValue(2, -3)
	assert.Equal(t, []int64{1, 1, -2}, s.Values())
	assert.Equal(t, int64(-2), s.Last())
	// reads past the end hold the last value
	assert.Equal(t, int64(-2), s.At(50))
}

func TestQuantitySeries_MaxValue_TracksTrueMaximum(t *testing.T) {
	// GIVEN a series starting at 2
	s := NewQuantitySeries(2, 0)

	// WHEN a smaller value is appended, the maximum is unchanged
	s.ChangeValue(1, -1)
	assert.Equal(t, int64(2), s.MaxValue())
	assert.Equal(t, int64(0), s.MaxTick())

	// WHEN a strictly larger value is appended, it becomes the maximum
	s.ChangeValue(2, 5) // 1 + 5
	assert.Equal(t, int64(6), s.MaxValue())
	assert.Equal(t, int64(2), s.MaxTick())

	// WHEN an equal value appears later, the earliest tick is kept
	s.ExtrapolateUntil(4)
	assert.Equal(t, int64(6), s.MaxValue())
	assert.Equal(t, int64(2), s.MaxTick())

	// WHEN the maximum entry itself is lowered, the next best entry takes over
	s.ChangeValue(2, -5)
	assert.Equal(t, []int64{2, 1, 1, 6, 6}, s.Values())
	assert.Equal(t, int64(6), s.MaxValue())
	assert.Equal(t, int64(3), s.MaxTick())
}

func TestQuantitySeries_MaxValue_RescanAfterHeadDecrease(t *testing.T) {
	s := NewQuantitySeries(0, 0)
	s.ChangeValue(1, 9)
	s.ChangeValue(3, -4) // series: 0 9 9 5
	assert.Equal(t, int64(9), s.MaxValue())
	assert.Equal(t, int64(1), s.MaxTick())

	s.ChangeValue(1, -8) // series: 0 1 9 5
	assert.Equal(t, int64(9), s.MaxValue())
	assert.Equal(t, int64(2), s.MaxTick())

	s.ChangeValue(2, -9) // series: 0 1 0 5
	assert.Equal(t, int64(5), s.MaxValue())
	assert.Equal(t, int64(3), s.MaxTick())
}

func TestQuantitySeries_ZeroValue_ReportsZero(t *testing.T) {
	var s QuantitySeries
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int64(0), s.MaxValue())
	assert.Equal(t, int64(-1), s.MaxTick())

	s.ChangeValue(2, 3)
	assert.Equal(t, []int64{0, 0, 3}, s.Values())
	assert.Equal(t, int64(3), s.MaxValue())
}

func TestQuantitySeries_NegativeTick_Panics(t *testing.T) {
	s := NewQuantitySeries(0, 0)
	assert.Panics(t, func() { s.ChangeValue(-1, 1) })
	assert.Panics(t, func() { s.ExtrapolateUntil(-1) })
}

func TestQuantitySeries_Values_ReturnsCopy(t *testing.T) {
	s := NewQuantitySeries(1, 0)
	v := s.Values()
	v[0] = 100
	assert.Equal(t, int64(1), s.At(0))
}
