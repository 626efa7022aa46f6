package analysis

// daysPerYear is the simple-interest day count convention used throughout.
const daysPerYear = 365.0

// ApplyTimeDiscount converts a future payoff into present value under simple
// interest: PV = FV / (1 + rate*days/365). Zero days is the identity.
func ApplyTimeDiscount(payoff, days, rate float64) float64 {
	if days == 0 {
		return payoff
	}
	return payoff / (1 + rate*days/daysPerYear)
}

// OpportunityCost is the simple-interest return the stake would have earned
// elsewhere while locked in a position for the given number of days.
func OpportunityCost(stake, days, rate float64) float64 {
	return stake * rate * days / daysPerYear
}
