// Package calculator holds the pure cost-share math used by the cost
// summary engine. Shares are allocated proportionally to per-member
// ratios; ratios are weights and do not need to sum to 1.
package calculator

import "math"

// RatioEpsilon is the threshold below which a ratio change is treated
// as no change at all, so float noise never produces notifications.
const RatioEpsilon = 1e-6

// MemberShare is one member's computed share of a trip's total cost.
type MemberShare struct {
	UserID   string
	Username string
	Ratio    float64
	Cost     float64
}

// MemberRatio is a (member, weight) input pair.
type MemberRatio struct {
	UserID   string
	Username string
	Ratio    float64
}

// ComputeShares allocates totalCost across members proportionally to
// their ratios, rounded to cents. When the ratio sum is zero every share
// is zero; dividing by the zero sum is never attempted.
func ComputeShares(totalCost float64, members []MemberRatio) []MemberShare {
	shares := make([]MemberShare, 0, len(members))

	var ratioSum float64
	for _, m := range members {
		ratioSum += m.Ratio
	}

	for _, m := range members {
		cost := 0.0
		if ratioSum != 0 {
			cost = RoundCents(totalCost * m.Ratio / ratioSum)
		}
		shares = append(shares, MemberShare{
			UserID:   m.UserID,
			Username: m.Username,
			Ratio:    m.Ratio,
			Cost:     cost,
		})
	}

	return shares
}

// RoundCents rounds to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// RatioChanged reports whether a ratio moved by more than RatioEpsilon.
func RatioChanged(oldRatio, newRatio float64) bool {
	return math.Abs(newRatio-oldRatio) > RatioEpsilon
}

// PercentChange expresses a ratio change as a percentage of the old
// value. A change from zero is reported as 100%.
func PercentChange(oldRatio, newRatio float64) float64 {
	if oldRatio == 0 {
		return 100
	}
	return RoundCents((newRatio - oldRatio) / oldRatio * 100)
}
