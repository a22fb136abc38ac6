package contracts

// SummaryColumns is the presentation header of the summary table
var SummaryColumns = []string{
	"entity",
	"first price",
	"last price",
	"total return %",
	"volatility %",
	"max weekly move %",
	"min weekly move %",
}

// EventColumns is the presentation header of the declines/rises tables
var EventColumns = []string{"date", "entity", "price", "return_pct"}

// SummaryRecord holds descriptive statistics for one company
// ⭐ SSOT: Summary Aggregator 출력
type SummaryRecord struct {
	Company     string   `json:"company"`
	FirstPrice  float64  `json:"first_price"`
	LastPrice   float64  `json:"last_price"`
	TotalReturn *float64 `json:"total_return_pct"` // nil when first price <= 0
	Volatility  *float64 `json:"volatility_pct"`   // nil with fewer than 2 returns
	MaxReturn   *float64 `json:"max_return_pct"`
	MinReturn   *float64 `json:"min_return_pct"`
}

// EventSide tells whether an event is a sharp decline or a sharp rise
type EventSide string

const (
	EventDip      EventSide = "dip"
	EventMomentum EventSide = "momentum"
)

// Events groups the two sides of a threshold extraction
type Events struct {
	Threshold float64      `json:"threshold"`
	Declines  []PricePoint `json:"declines"`
	Rises     []PricePoint `json:"rises"`
}
