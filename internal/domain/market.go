package domain

import "time"

// neutralPrice is substituted when an upstream record left an outcome
// unpopulated. Partially-filled snapshots are tolerated rather than rejected.
const neutralPrice = 0.5

// Market is a point-in-time snapshot of a binary prediction market.
// Outcomes[0] is always the YES side and Outcomes[1] the NO side. Each price
// is a probability in [0,1], but the two are quoted independently and need
// not sum to 1; detecting when they don't is the scanner's job.
type Market struct {
	ID        string     `json:"id"`
	Question  string     `json:"question"`
	Category  string     `json:"category"`
	EndDate   time.Time  `json:"end_date"`
	Volume    float64    `json:"volume"`
	Liquidity float64    `json:"liquidity"`
	Outcomes  [2]Outcome `json:"outcomes"`
}

// Outcome is one side of a binary market. Price approximates the
// market-implied probability of the side resolving true.
type Outcome struct {
	Name  string  `json:"name"` // "Yes" | "No"
	Price float64 `json:"price"`
}

// YesPrice returns the primary (YES) price. A zero-value outcome counts as
// missing and yields the neutral 0.5 default.
func (m Market) YesPrice() float64 {
	return m.Outcomes[0].priceOr(neutralPrice)
}

// NoPrice returns the quoted NO price, defaulting to 0.5 when unpopulated.
// Note this is the independently quoted price, not 1 - YesPrice.
func (m Market) NoPrice() float64 {
	return m.Outcomes[1].priceOr(neutralPrice)
}

func (o Outcome) priceOr(fallback float64) float64 {
	if o == (Outcome{}) {
		return fallback
	}
	return o.Price
}

// DaysToResolution returns the days until the market's end date, measured
// from the given instant. Markets without an end date, or already past it,
// report 0.
func (m Market) DaysToResolution(now time.Time) float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	d := m.EndDate.Sub(now).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}
