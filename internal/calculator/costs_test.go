package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSharesProportional(t *testing.T) {
	members := []MemberRatio{
		{UserID: "a", Username: "Alice", Ratio: 0.3},
		{UserID: "b", Username: "Bob", Ratio: 0.7},
	}

	shares := ComputeShares(100, members)

	assert.Len(t, shares, 2)
	assert.Equal(t, 30.00, shares[0].Cost)
	assert.Equal(t, 70.00, shares[1].Cost)
}

func TestComputeSharesUnnormalizedRatios(t *testing.T) {
	members := []MemberRatio{
		{UserID: "a", Ratio: 1},
		{UserID: "b", Ratio: 1},
		{UserID: "c", Ratio: 1},
	}

	shares := ComputeShares(90, members)

	for _, s := range shares {
		assert.Equal(t, 30.00, s.Cost)
	}
}

func TestComputeSharesZeroRatioSum(t *testing.T) {
	members := []MemberRatio{
		{UserID: "a", Ratio: 0},
		{UserID: "b", Ratio: 0},
	}

	shares := ComputeShares(250, members)

	assert.Len(t, shares, 2)
	for _, s := range shares {
		assert.Equal(t, 0.0, s.Cost)
	}
}

func TestComputeSharesEmptyMembers(t *testing.T) {
	shares := ComputeShares(100, nil)
	assert.Empty(t, shares)
}

func TestComputeSharesSumCloseToTotal(t *testing.T) {
	cases := []struct {
		name    string
		total   float64
		ratios  []float64
	}{
		{"thirds", 100, []float64{1, 1, 1}},
		{"uneven", 99.99, []float64{0.17, 0.33, 0.5}},
		{"sevenths", 70.77, []float64{1, 2, 4}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			members := make([]MemberRatio, len(tc.ratios))
			for i, r := range tc.ratios {
				members[i] = MemberRatio{UserID: string(rune('a' + i)), Ratio: r}
			}

			shares := ComputeShares(tc.total, members)

			var sum float64
			for _, s := range shares {
				sum += s.Cost
			}
			// Each share is independently rounded to cents, so the sum
			// may drift by up to a cent per member.
			tolerance := 0.01 * float64(len(members))
			assert.InDelta(t, tc.total, sum, tolerance)
		})
	}
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 33.33, RoundCents(100.0/3))
	assert.Equal(t, 0.1, RoundCents(0.1))
	assert.Equal(t, 2.68, RoundCents(2.675000001))
}

func TestRatioChanged(t *testing.T) {
	assert.False(t, RatioChanged(0.5, 0.5))
	assert.False(t, RatioChanged(0.5, 0.5+1e-7))
	assert.True(t, RatioChanged(0.5, 0.5+1e-5))
	assert.True(t, RatioChanged(0, 1))
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 100.0, PercentChange(0, 0.5))
	assert.Equal(t, 50.0, PercentChange(0.4, 0.6))
	assert.Equal(t, -50.0, PercentChange(0.4, 0.2))
	assert.False(t, math.IsNaN(PercentChange(0, 0)))
}
